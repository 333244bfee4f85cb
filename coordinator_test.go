package entrysource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubClient struct {
	baseURL     string
	interceptor func(http.Header)
	lastPath    string
	lastHeaders map[string]string
	resetCalls  int
	response    Response
}

func (c *stubClient) Configure(baseURL string) {
	c.baseURL = baseURL
}

func (c *stubClient) Get(ctx context.Context, path string, headers map[string]string) Response {
	c.lastPath = path
	c.lastHeaders = headers
	return c.response
}

func (c *stubClient) SetRequestInterceptor(fn func(http.Header)) {
	c.interceptor = fn
}

func (c *stubClient) Reset() {
	c.resetCalls++
	c.baseURL = ""
	c.interceptor = nil
}

func TestCoordinator_ConfigureDefaultsToSSRWithoutPage(t *testing.T) {
	client := &stubClient{}
	co := NewCoordinator(Environment{Store: NewMemoryStore()}, client, testLogger())

	co.Configure(Config{TenantID: "t1"})

	cfg := co.GetConfig()
	if cfg == nil || !cfg.ssr() {
		t.Fatalf("expected SSR mode without page context")
	}
	if co.storage.Backend() != BackendTransient {
		t.Fatalf("expected transient storage in SSR mode")
	}
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("expected client configured with default base URL, got %q", client.baseURL)
	}
}

func TestCoordinator_ScenarioA_ManualUTMWithMemoryStorage(t *testing.T) {
	co := NewCoordinator(Environment{}, &stubClient{}, testLogger())
	co.Configure(Config{
		TenantID:      "t1",
		StorageMode:   ParseStorageMode("memory"),
		EnableAutoUTM: Bool(false),
	})

	co.SetUTMParameters(UTMParams{
		{Key: "source", Value: "news"},
		{Key: "medium", Value: "email"},
	})

	headers := co.TrackingHeaders()
	if headers[HeaderUTM] != "source=news&medium=email" {
		t.Fatalf("unexpected UTM header: %q", headers[HeaderUTM])
	}
}

func TestCoordinator_ScenarioB_AutoCaptureInBrowser(t *testing.T) {
	env := Environment{
		Page: &Page{
			URL:      "https://example.com/landing",
			RawQuery: "utm_source=google&utm_medium=cpc&other=x",
		},
	}
	co := NewCoordinator(env, &stubClient{}, testLogger())

	co.Configure(Config{TenantID: "t1"})

	headers := co.TrackingHeaders()
	if headers[HeaderUTM] != "source=google&medium=cpc" {
		t.Fatalf("unexpected UTM header: %q", headers[HeaderUTM])
	}
}

func TestCoordinator_ScenarioC_HydrateMigratesIdentifiers(t *testing.T) {
	store := NewMemoryStore()
	env := Environment{
		Page:  &Page{URL: "https://example.com"},
		Store: store,
	}
	co := NewCoordinator(env, &stubClient{}, testLogger())
	co.Configure(Config{TenantID: "t1", SSRMode: Bool(true)})

	co.SetCustomerIdentifiers(Identifiers{{Key: "userId", Value: "u1"}})
	if co.storage.Backend() != BackendTransient {
		t.Fatalf("expected transient storage before hydrate")
	}

	co.Hydrate()

	if co.storage.Backend() != BackendPersistent {
		t.Fatalf("expected persistent storage after hydrate")
	}
	if value, ok, err := store.Get(KeyCustomerIdentifiers); err != nil || !ok || value != `{"userId":"u1"}` {
		t.Fatalf("expected identifiers in persistent store, got %q, %v, %v", value, ok, err)
	}
	if got := co.GetCustomerIdentifiers(); got["userId"] != "u1" {
		t.Fatalf("expected identifiers readable after hydrate, got %+v", got)
	}
	if cfg := co.GetConfig(); cfg.ssr() {
		t.Fatalf("expected SSR mode flipped off by hydrate")
	}
}

func TestCoordinator_ScenarioD_ClearingReferrer(t *testing.T) {
	co := NewCoordinator(Environment{}, &stubClient{}, testLogger())
	co.Configure(Config{TenantID: "t1"})

	co.SetReferrer("https://news.example.com")
	co.SetReferrer("")

	if got := co.GetReferrer(); got != "" {
		t.Fatalf("expected empty referrer, got %q", got)
	}
	if _, ok := co.TrackingHeaders()[HeaderInitialReferrer]; ok {
		t.Fatalf("expected referral header omitted")
	}
}

func TestCoordinator_HydrateReCapturesUnderIdempotencyRules(t *testing.T) {
	env := Environment{
		Page: &Page{
			URL:      "https://example.com/landing",
			RawQuery: "utm_source=google",
			Referrer: "https://news.example.com",
		},
		Store: NewMemoryStore(),
	}
	co := NewCoordinator(env, &stubClient{}, testLogger())
	co.Configure(Config{TenantID: "t1", SSRMode: Bool(true)})
	co.SetReferrer("https://manual.example.com")

	co.Hydrate()

	// Referrer capture is first-write-wins; the manual value survives.
	if got := co.GetReferrer(); got != "https://manual.example.com" {
		t.Fatalf("expected manual referrer preserved, got %q", got)
	}
	// UTM auto-capture overwrites because the URL carries utm_ params.
	if got := co.GetUTMParameters(); got["source"] != "google" {
		t.Fatalf("expected UTM captured on hydrate, got %+v", got)
	}
}

func TestCoordinator_HydrateWithoutConfigureWarnsAndNoOps(t *testing.T) {
	co := NewCoordinator(Environment{Page: &Page{URL: "https://example.com"}}, &stubClient{}, testLogger())
	co.Hydrate()
	if co.GetConfig() != nil {
		t.Fatalf("expected still unconfigured")
	}
}

func TestCoordinator_HydrateWithoutPageIsNoOp(t *testing.T) {
	co := NewCoordinator(Environment{Store: NewMemoryStore()}, &stubClient{}, testLogger())
	co.Configure(Config{TenantID: "t1"})

	co.Hydrate()

	if !co.GetConfig().ssr() {
		t.Fatalf("expected SSR mode unchanged without page context")
	}
	if co.storage.Backend() != BackendTransient {
		t.Fatalf("expected storage unchanged without page context")
	}
}

func TestCoordinator_GetContentRequiresConfigureAndTenant(t *testing.T) {
	co := NewCoordinator(Environment{}, &stubClient{}, testLogger())

	if _, err := co.GetContent(context.Background(), GetContentParams{Model: "page", ContentID: "home"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	co.Configure(Config{})
	if _, err := co.GetContent(context.Background(), GetContentParams{Model: "page", ContentID: "home"}); !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

func TestCoordinator_GetContentBuildsPathAndForwardsHeaders(t *testing.T) {
	client := &stubClient{}
	co := NewCoordinator(Environment{}, client, testLogger())
	co.Configure(Config{TenantID: "t1"})

	custom := map[string]string{"X-Custom": "extra"}
	if _, err := co.GetContent(context.Background(), GetContentParams{Model: "page", ContentID: "home", Headers: custom}); err != nil {
		t.Fatalf("get content failed: %v", err)
	}
	if client.lastPath != "/api/v1/content/t1/page/home" {
		t.Fatalf("unexpected path: %s", client.lastPath)
	}
	if client.lastHeaders["X-Custom"] != "extra" {
		t.Fatalf("expected custom headers forwarded, got %+v", client.lastHeaders)
	}

	// Per-call tenant override changes the path.
	if _, err := co.GetContent(context.Background(), GetContentParams{TenantID: "t2", Model: "post", ContentID: "p1"}); err != nil {
		t.Fatalf("get content failed: %v", err)
	}
	if client.lastPath != "/api/v1/content/t2/post/p1" {
		t.Fatalf("unexpected path: %s", client.lastPath)
	}
}

func TestCoordinator_InterceptorInjectsAllTrackingHeaders(t *testing.T) {
	client := &stubClient{}
	co := NewCoordinator(Environment{}, client, testLogger())
	co.Configure(Config{TenantID: "t1"})

	co.SetUTMParameters(UTMParams{{Key: "source", Value: "news"}})
	co.SetReferrer("https://news.example.com")
	co.SetCustomerIdentifiers(Identifiers{{Key: "userId", Value: "u1"}})

	if client.interceptor == nil {
		t.Fatalf("expected interceptor installed at configure time")
	}
	headers := http.Header{}
	client.interceptor(headers)

	if got := headers.Get(HeaderUTM); got != "source=news" {
		t.Fatalf("unexpected UTM header: %q", got)
	}
	if got := headers.Get(HeaderInitialReferrer); got != "https://news.example.com" {
		t.Fatalf("unexpected referral header: %q", got)
	}
	if got := headers.Get(HeaderCustomerIdentifiers); got != "userId=u1" {
		t.Fatalf("unexpected identifiers header: %q", got)
	}
}

func TestCoordinator_IdentifiersHeaderAlwaysPresent(t *testing.T) {
	co := NewCoordinator(Environment{}, &stubClient{}, testLogger())
	co.Configure(Config{TenantID: "t1"})

	headers := co.TrackingHeaders()
	if headers[HeaderCustomerIdentifiers] != IdentifierSentinel {
		t.Fatalf("expected sentinel identifiers header, got %+v", headers)
	}
	if _, ok := headers[HeaderUTM]; ok {
		t.Fatalf("expected no UTM header before capture")
	}
	if _, ok := headers[HeaderInitialReferrer]; ok {
		t.Fatalf("expected no referral header before capture")
	}
}

func TestCoordinator_EndToEndHeadersOnTheWire(t *testing.T) {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.Write([]byte(`{"title":"Home"}`))
	}))
	defer server.Close()

	co := NewCoordinator(Environment{}, nil, testLogger())
	co.Configure(Config{TenantID: "t1", BaseURL: server.URL})
	co.SetUTMParameters(UTMParams{{Key: "source", Value: "news"}})

	resp, err := co.GetContent(context.Background(), GetContentParams{Model: "page", ContentID: "home"})
	if err != nil {
		t.Fatalf("get content failed: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected response error: %+v", resp.Error)
	}
	if got := seen.Get(HeaderUTM); got != "source=news" {
		t.Fatalf("expected UTM header on the wire, got %q", got)
	}
	if got := seen.Get(HeaderCustomerIdentifiers); got != IdentifierSentinel {
		t.Fatalf("expected identifiers sentinel on the wire, got %q", got)
	}
}

func TestCoordinator_ResetReturnsToUnconfigured(t *testing.T) {
	store := NewMemoryStore()
	client := &stubClient{}
	co := NewCoordinator(Environment{Page: &Page{URL: "https://example.com"}, Store: store}, client, testLogger())
	co.Configure(Config{TenantID: "t1"})
	co.SetCustomerIdentifiers(Identifiers{{Key: "userId", Value: "u1"}})

	co.Reset()

	if co.GetConfig() != nil {
		t.Fatalf("expected nil config after reset")
	}
	if client.resetCalls != 1 {
		t.Fatalf("expected client reset once, got %d", client.resetCalls)
	}
	if _, err := co.GetContent(context.Background(), GetContentParams{Model: "page", ContentID: "home"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured after reset, got %v", err)
	}
	// Identifiers were cleared in storage before the reference dropped.
	if value, ok, err := store.Get(KeyCustomerIdentifiers); err != nil || !ok || value != "{}" {
		t.Fatalf("expected empty identifier object persisted, got %q, %v, %v", value, ok, err)
	}

	// Configure starts over from scratch.
	co.Configure(Config{TenantID: "t2"})
	if co.GetConfig() == nil || co.GetConfig().TenantID != "t2" {
		t.Fatalf("expected reconfigure to succeed")
	}
}
