package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpctrl "github.com/secmon-lab/gyges/pkg/controller/http"
	"github.com/secmon-lab/gyges/pkg/domain/event"
	"github.com/secmon-lab/gyges/pkg/repository/memory"
	"github.com/secmon-lab/gyges/pkg/usecase"
)

func newTestServer(t *testing.T, opts ...httpctrl.Options) *httpctrl.Server {
	t.Helper()

	bus := event.NewBus()
	t.Cleanup(func() { _ = bus.Close() })
	uc := usecase.New(memory.New(), bus)

	return httpctrl.New(uc, opts...)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("expected body OK, got %s", rec.Body.String())
	}
}

func TestWebhookURLVerification(t *testing.T) {
	srv := newTestServer(t)

	body := `{"type":"url_verification","token":"tok","challenge":"ch-12345"}`
	req := httptest.NewRequest(http.MethodPost, "/hook/slack/event", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "ch-12345" {
		t.Errorf("expected challenge echo, got %s", rec.Body.String())
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/hook/slack/event", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestOAuthRoutesDisabledByDefault(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/oauth/start", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestOAuthStartRedirects(t *testing.T) {
	srv := newTestServer(t, httpctrl.WithOAuth("client-1", "channels:read,users:read"))

	req := httptest.NewRequest(http.MethodGet, "/oauth/start", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d", http.StatusFound, rec.Code)
	}

	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://slack.com/oauth/v2/authorize") {
		t.Errorf("unexpected redirect target: %s", loc)
	}
	if !strings.Contains(loc, "client_id=client-1") {
		t.Errorf("redirect misses client_id: %s", loc)
	}
	if !strings.Contains(loc, "scope=") {
		t.Errorf("redirect misses scope: %s", loc)
	}
}

func TestOAuthCallbackRequiresCode(t *testing.T) {
	srv := newTestServer(t, httpctrl.WithOAuth("client-1", "channels:read"))

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
