package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/antoniostano/gamemaster/internal/config"
	"github.com/antoniostano/gamemaster/internal/observability"
	"github.com/antoniostano/gamemaster/internal/session"
	"github.com/antoniostano/gamemaster/internal/transcript"
)

// Metrics register against the default registry, so every test server
// needs its own namespace.
var metricsNamespaceSeq atomic.Int64

func newTestServer(t *testing.T, store *transcript.Store) (*Server, *session.Manager) {
	t.Helper()
	cfg := config.Config{
		SessionInactivityTimeout: 2 * time.Minute,
	}
	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", metricsNamespaceSeq.Add(1)))
	return New(cfg, sessions, nil, store, metrics), sessions
}

func TestCreateAndEndSession(t *testing.T) {
	srv, _ := newTestServer(t, transcript.NewStore(t.TempDir()))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/v1/game/session", "application/json", nil)
	if err != nil {
		t.Fatalf("create session request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var created map[string]any
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	sessionID, _ := created["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id in create response: %+v", created)
	}
	if created["game"] != transcript.GameTitle {
		t.Fatalf("game = %v, want %q", created["game"], transcript.GameTitle)
	}

	endRes, err := http.Post(ts.URL+"/v1/game/session/"+sessionID+"/end", "application/json", nil)
	if err != nil {
		t.Fatalf("end session request error = %v", err)
	}
	defer endRes.Body.Close()
	if endRes.StatusCode != http.StatusOK {
		t.Fatalf("end status = %d, want %d", endRes.StatusCode, http.StatusOK)
	}
}

func TestEndUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, transcript.NewStore(t.TempDir()))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/v1/game/session/nope/end", "application/json", nil)
	if err != nil {
		t.Fatalf("end request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestListSaves(t *testing.T) {
	store := transcript.NewStore(t.TempDir())
	status := store.Save(context.Background(), []transcript.Turn{
		{Role: transcript.RoleUser, Content: "my name is Mira"},
		{Role: transcript.RoleAssistant, Content: "Welcome, Mira."},
	})
	if !strings.HasPrefix(status, "✅") {
		t.Fatalf("unexpected save status %q", status)
	}

	srv, _ := newTestServer(t, store)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/game/saves")
	if err != nil {
		t.Fatalf("GET /v1/game/saves error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var payload struct {
		Saves []transcript.SaveInfo `json:"saves"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(payload.Saves))
	}
}

func TestSessionWSRequiresSessionID(t *testing.T) {
	srv, _ := newTestServer(t, transcript.NewStore(t.TempDir()))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/game/session/ws")
	if err != nil {
		t.Fatalf("GET ws error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, transcript.NewStore(t.TempDir()))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}
