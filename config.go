package entrysource

import "log/slog"

// DefaultBaseURL is the production CMS endpoint.
const DefaultBaseURL = "https://cms.entrysource.io"

// Config holds SDK configuration supplied to Configure. Tri-state
// boolean fields are pointers; nil means "use the default".
type Config struct {
	TenantID               string
	BaseURL                string
	EnableAutoUTM          *bool // default true; gates automatic capture only
	EnableReferrerTracking *bool // default true; gates automatic capture only
	StorageMode            StorageMode
	SSRMode                *bool // default: true when no page context exists
	HydrateOnMount         *bool // default true; informational to this core
	Logger                 *slog.Logger
}

// Bool returns a pointer to b, for the tri-state config fields.
func Bool(b bool) *bool {
	return &b
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		StorageMode: StorageAuto,
	}
}

// mergeConfig fills cfg's unset fields from the defaults, resolving
// SSRMode against the execution environment.
func mergeConfig(cfg Config, env Environment) *Config {
	merged := cfg
	if merged.BaseURL == "" {
		merged.BaseURL = DefaultBaseURL
	}
	if merged.EnableAutoUTM == nil {
		merged.EnableAutoUTM = Bool(true)
	}
	if merged.EnableReferrerTracking == nil {
		merged.EnableReferrerTracking = Bool(true)
	}
	if merged.SSRMode == nil {
		merged.SSRMode = Bool(!env.HasPage())
	}
	if merged.HydrateOnMount == nil {
		merged.HydrateOnMount = Bool(true)
	}
	return &merged
}

func (c *Config) autoUTM() bool {
	return c == nil || c.EnableAutoUTM == nil || *c.EnableAutoUTM
}

func (c *Config) referrerTracking() bool {
	return c == nil || c.EnableReferrerTracking == nil || *c.EnableReferrerTracking
}

func (c *Config) ssr() bool {
	return c != nil && c.SSRMode != nil && *c.SSRMode
}

func (c *Config) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
