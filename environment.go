package entrysource

// Page describes the browser-like page context a host hands to the
// SDK. RawQuery is the page URL's query string without the leading
// question mark; Referrer is the incoming document referrer.
type Page struct {
	URL      string
	RawQuery string
	Referrer string
}

// Environment carries the execution-context capabilities the SDK is
// allowed to touch. A nil Page means no browser-like context exists
// (server rendering); a nil Store means no persistent backend is
// offered. Tests substitute fake environments instead of mutating
// process globals.
type Environment struct {
	Page  *Page
	Store Store
}

// HasPage reports whether a browser-like page context exists.
func (e Environment) HasPage() bool {
	return e.Page != nil
}
