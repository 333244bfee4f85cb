package entrysource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// ErrNotConfigured is returned when the SDK is used before Configure.
var ErrNotConfigured = errors.New("entrysource: not configured, call Configure first")

// ErrTenantRequired is returned when no tenant id is resolvable from
// the call or the configuration.
var ErrTenantRequired = errors.New("entrysource: tenant id required")

// GetContentParams identifies a single content entry to fetch.
type GetContentParams struct {
	TenantID  string // optional per-call override of Config.TenantID
	Model     string
	ContentID string
	Headers   map[string]string // layered on top of tracking headers
}

// Coordinator wires configuration, storage resolution, the three
// trackers, and outbound header injection. It starts Unconfigured,
// moves to Configured(SSR) or Configured(Browser) via Configure,
// upgrades SSR to Browser via Hydrate, and returns to Unconfigured via
// Reset. There is no Browser-to-SSR transition.
type Coordinator struct {
	env         Environment
	client      ContentClient
	logger      *slog.Logger
	config      *Config
	storage     *Storage
	utm         *UTMTracker
	referrer    *ReferrerTracker
	identifiers *IdentifierManager
}

// NewCoordinator creates a coordinator in the Unconfigured state. A
// nil client gets the default HTTP client; a nil logger gets
// slog.Default().
func NewCoordinator(env Environment, client ContentClient, logger *slog.Logger) *Coordinator {
	if client == nil {
		client = NewHTTPClient()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		env:         env,
		client:      client,
		logger:      logger,
		utm:         NewUTMTracker(logger),
		referrer:    NewReferrerTracker(logger),
		identifiers: NewIdentifierManager(logger),
	}
}

// Configure merges cfg over defaults, resolves storage, configures the
// content client, and initializes the trackers. Calling it again
// reconfigures a live instance from scratch.
func (co *Coordinator) Configure(cfg Config) {
	merged := mergeConfig(cfg, co.env)
	if merged.Logger == nil {
		merged.Logger = co.logger
	}
	if merged.TenantID == "" {
		co.logger.Warn("configure called without tenant id, GetContent will fail until one is provided")
	}
	co.config = merged
	co.storage = NewStorage(merged.StorageMode, merged.ssr(), co.env.Store, merged.logger())
	co.client.Configure(merged.BaseURL)
	co.client.SetRequestInterceptor(func(h http.Header) {
		for key, value := range co.TrackingHeaders() {
			h.Set(key, value)
		}
	})
	co.initializeTrackers()
}

// initializeTrackers runs SSR-safe or full browser initialization on
// all three trackers. Invoked from both Configure and Hydrate.
func (co *Coordinator) initializeTrackers() {
	if co.config.ssr() || !co.env.HasPage() {
		co.utm.InitializeSSR(co.config, co.storage)
		co.referrer.InitializeSSR(co.config, co.storage)
		co.identifiers.InitializeSSR(co.config, co.storage)
		return
	}
	co.utm.Initialize(co.config, co.storage, co.env.Page)
	co.referrer.Initialize(co.config, co.storage, co.env.Page)
	co.identifiers.Initialize(co.config, co.storage)
}

// Hydrate transitions a server-rendered instance into full browser
// mode: storage is upgraded to persistent when possible and the
// trackers re-run their capture logic under their idempotency rules.
func (co *Coordinator) Hydrate() {
	if co.config == nil {
		co.logger.Warn("hydrate called before Configure")
		return
	}
	if !co.env.HasPage() {
		co.logger.Warn("hydrate called without a page context")
		return
	}
	co.config.SSRMode = Bool(false)
	upgraded := co.storage.Hydrate()
	co.initializeTrackers()
	co.logger.Info("hydrated",
		"storageUpgraded", upgraded,
		"backend", co.storage.Backend().String(),
	)
}

// TrackingHeaders aggregates the outbound headers of all three
// trackers. Each tracker owns a disjoint header name.
func (co *Coordinator) TrackingHeaders() map[string]string {
	headers := map[string]string{}
	for key, value := range co.utm.Headers() {
		headers[key] = value
	}
	for key, value := range co.identifiers.Headers() {
		headers[key] = value
	}
	for key, value := range co.referrer.Headers() {
		headers[key] = value
	}
	return headers
}

// GetContent fetches a content entry. Configuration misuse is returned
// as a Go error; transport failures come back inside the Response.
func (co *Coordinator) GetContent(ctx context.Context, params GetContentParams) (Response, error) {
	if co.config == nil {
		return Response{}, ErrNotConfigured
	}
	tenant := params.TenantID
	if tenant == "" {
		tenant = co.config.TenantID
	}
	if tenant == "" {
		return Response{}, ErrTenantRequired
	}
	path := fmt.Sprintf("/api/v1/content/%s/%s/%s",
		url.PathEscape(tenant),
		url.PathEscape(params.Model),
		url.PathEscape(params.ContentID),
	)
	return co.client.Get(ctx, path, params.Headers), nil
}

// SetCustomerIdentifiers merges identifier assignments.
func (co *Coordinator) SetCustomerIdentifiers(ids Identifiers) {
	co.identifiers.SetIdentifiers(ids)
}

// GetCustomerIdentifiers returns the merged identifier view.
func (co *Coordinator) GetCustomerIdentifiers() map[string]string {
	return co.identifiers.GetIdentifiers()
}

// SetUTMParameters overwrites the attribution parameters.
func (co *Coordinator) SetUTMParameters(params UTMParams) {
	co.utm.SetParameters(params)
}

// ClearUTMParameters clears the attribution parameters.
func (co *Coordinator) ClearUTMParameters() {
	co.utm.ClearParameters()
}

// GetUTMParameters returns the persisted attribution parameters, or
// nil when never captured or cleared.
func (co *Coordinator) GetUTMParameters() map[string]string {
	return co.utm.Parameters()
}

// SetReferrer overwrites the persisted referrer.
func (co *Coordinator) SetReferrer(url string) {
	co.referrer.SetReferrer(url)
}

// SetReferrerSource overwrites the persisted referrer from a
// structured source.
func (co *Coordinator) SetReferrerSource(src ReferrerSource) {
	co.referrer.SetReferrerSource(src)
}

// ClearReferrer clears the persisted referrer.
func (co *Coordinator) ClearReferrer() {
	co.referrer.ClearReferrer()
}

// GetReferrer returns the persisted referrer, or "" when absent.
func (co *Coordinator) GetReferrer() string {
	return co.referrer.Referrer()
}

// GetConfig returns the active merged configuration, or nil before
// Configure.
func (co *Coordinator) GetConfig() *Config {
	return co.config
}

// Reset returns the coordinator to the Unconfigured state. Configure
// may be called again afterwards.
func (co *Coordinator) Reset() {
	co.identifiers.Reset()
	co.utm.Reset()
	co.referrer.Reset()
	co.client.Reset()
	co.config = nil
	co.storage = nil
}
