package entrysource

import (
	"log/slog"
	"strings"
)

// ReferrerSource identifies a referring location by URL and optional
// domain label.
type ReferrerSource struct {
	URL    string
	Domain string
}

// ReferrerTracker captures the incoming document referrer once and
// exposes it as the X-ENTRY-SOURCE-INITIAL-REFERRAL header. Automatic
// capture is first-write-wins; manual SetReferrer always overwrites.
type ReferrerTracker struct {
	storage *Storage
	enabled bool
	logger  *slog.Logger
}

// NewReferrerTracker creates an uninitialized tracker.
func NewReferrerTracker(logger *slog.Logger) *ReferrerTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferrerTracker{logger: logger}
}

// Initialize wires storage and captures the page referrer when it is
// non-empty, differs from the page's own URL, and nothing is already
// persisted.
func (t *ReferrerTracker) Initialize(cfg *Config, storage *Storage, page *Page) {
	t.storage = storage
	t.enabled = cfg.referrerTracking()
	if !t.enabled || page == nil {
		return
	}
	referrer := strings.TrimSpace(page.Referrer)
	if referrer == "" || referrer == page.URL {
		return
	}
	if existing, ok := storage.Get(KeyInitialReferrer); ok && strings.TrimSpace(existing) != "" {
		return
	}
	storage.Set(KeyInitialReferrer, referrer)
}

// InitializeSSR wires storage without touching page context.
func (t *ReferrerTracker) InitializeSSR(cfg *Config, storage *Storage) {
	t.storage = storage
	t.enabled = cfg.referrerTracking()
}

// Headers returns the referral header when a referrer is persisted.
// Manual values surface identically to auto-captured ones.
func (t *ReferrerTracker) Headers() map[string]string {
	value := t.Referrer()
	if value == "" {
		return map[string]string{}
	}
	return map[string]string{HeaderInitialReferrer: value}
}

// SetReferrer persists the trimmed URL. An empty value persists an
// explicit clear.
func (t *ReferrerTracker) SetReferrer(url string) {
	if t.storage == nil {
		t.logger.Warn("referrer tracker has no storage, call Configure first")
		return
	}
	t.storage.Set(KeyInitialReferrer, strings.TrimSpace(url))
}

// SetReferrerSource persists the URL of a structured referrer source.
func (t *ReferrerTracker) SetReferrerSource(src ReferrerSource) {
	t.SetReferrer(src.URL)
}

// Referrer returns the persisted referrer, or "" when absent, cleared,
// or whitespace-only.
func (t *ReferrerTracker) Referrer() string {
	if t.storage == nil {
		return ""
	}
	value, ok := t.storage.Get(KeyInitialReferrer)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// ClearReferrer persists an explicit empty referrer.
func (t *ReferrerTracker) ClearReferrer() {
	if t.storage == nil {
		return
	}
	t.storage.Set(KeyInitialReferrer, "")
}

// Reset drops the storage reference and disables capture until the
// next Initialize.
func (t *ReferrerTracker) Reset() {
	t.storage = nil
	t.enabled = false
}
