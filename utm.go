package entrysource

import (
	"log/slog"
	"strings"
)

// UTMParam is a single attribution parameter.
type UTMParam struct {
	Key   string
	Value string
}

// UTMParams is an ordered list of attribution parameters. Order is
// preserved in the persisted string and the outbound header.
type UTMParams []UTMParam

// utmPrefix marks attribution parameters in a page query string.
const utmPrefix = "utm_"

// UTMTracker captures utm_* query parameters from the page and
// exposes them as the X-UTM header. Automatic capture overwrites
// persisted state whenever at least one utm_* parameter is present;
// manual values are preserved otherwise.
type UTMTracker struct {
	storage *Storage
	enabled bool
	logger  *slog.Logger
}

// NewUTMTracker creates an uninitialized tracker.
func NewUTMTracker(logger *slog.Logger) *UTMTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &UTMTracker{logger: logger}
}

// Initialize wires storage and auto-captures utm_* parameters from the
// page query string.
func (t *UTMTracker) Initialize(cfg *Config, storage *Storage, page *Page) {
	t.storage = storage
	t.enabled = cfg.autoUTM()
	if !t.enabled || page == nil {
		return
	}
	captured := captureUTM(page.RawQuery)
	if len(captured) == 0 {
		return
	}
	storage.Set(KeyUTMParameters, encodePairs(captured))
}

// InitializeSSR wires storage without touching page context.
func (t *UTMTracker) InitializeSSR(cfg *Config, storage *Storage) {
	t.storage = storage
	t.enabled = cfg.autoUTM()
}

// captureUTM collects utm_-prefixed parameters from a raw query string
// in document order, with the prefix stripped.
func captureUTM(rawQuery string) []pair {
	out := []pair{}
	for _, p := range decodePairs(rawQuery) {
		if !strings.HasPrefix(p.key, utmPrefix) {
			continue
		}
		out = append(out, pair{key: strings.TrimPrefix(p.key, utmPrefix), value: p.value})
	}
	return out
}

// Headers returns the X-UTM header when an attribution string exists.
// Manually set values surface even when automatic capture is disabled.
func (t *UTMTracker) Headers() map[string]string {
	if t.storage == nil {
		return map[string]string{}
	}
	value, ok := t.storage.Get(KeyUTMParameters)
	if !ok || value == "" {
		return map[string]string{}
	}
	return map[string]string{HeaderUTM: value}
}

// SetParameters overwrites the persisted attribution string regardless
// of the automatic-capture setting. Entries with an empty key or value
// are skipped; an empty result persists an explicit clear.
func (t *UTMTracker) SetParameters(params UTMParams) {
	if t.storage == nil {
		t.logger.Warn("utm tracker has no storage, call Configure first")
		return
	}
	pairs := make([]pair, 0, len(params))
	for _, p := range params {
		if p.Key == "" || p.Value == "" {
			continue
		}
		pairs = append(pairs, pair{key: p.Key, value: p.Value})
	}
	t.storage.Set(KeyUTMParameters, encodePairs(pairs))
}

// Parameters returns the persisted attribution parameters, or nil when
// never captured or cleared.
func (t *UTMTracker) Parameters() map[string]string {
	if t.storage == nil {
		return nil
	}
	value, ok := t.storage.Get(KeyUTMParameters)
	if !ok || value == "" {
		return nil
	}
	out := map[string]string{}
	for _, p := range decodePairs(value) {
		out[p.key] = p.value
	}
	return out
}

// ClearParameters persists an explicit empty attribution string,
// distinct from the never-captured state.
func (t *UTMTracker) ClearParameters() {
	if t.storage == nil {
		return
	}
	t.storage.Set(KeyUTMParameters, "")
}

// Reset drops the storage reference and disables capture until the
// next Initialize.
func (t *UTMTracker) Reset() {
	t.storage = nil
	t.enabled = false
}
