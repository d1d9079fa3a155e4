package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"calc-history/internal/calculator"
	"calc-history/internal/config"
	"calc-history/internal/history"
	"calc-history/internal/testutil"

	"github.com/google/uuid"
)

func newTestRouter(t *testing.T) (http.Handler, history.Store) {
	t.Helper()

	if err := calculator.InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}

	store := history.NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}

	return NewRouter(store, config.Default().CORS), store
}

func TestNewRouterHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/health", nil), router)

	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	if body := w.Body.String(); body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestNewRouterMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	// Touch the store so its counters have a sample to export.
	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/history", nil), router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	w = testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/metrics", nil), router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "history_store_operations_total") {
		t.Fatal("expected history store counter in metrics output")
	}
}

func TestNewRouterCalculateSetsHeaderAndOmitsRequestIDInBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := testutil.NewJSONRequest(http.MethodPost, "/calculate", `{"numbers":[2,3],"operation":"SUM"}`)
	w := testutil.ExecuteRequest(req, router)

	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	requestID := w.Result().Header.Get("X-Request-ID")
	if requestID == "" {
		t.Fatal("expected X-Request-ID header to be set")
	}
	if _, err := uuid.Parse(requestID); err != nil {
		t.Fatalf("expected valid UUID in X-Request-ID, got %q: %v", requestID, err)
	}

	var payload map[string]any
	testutil.DecodeJSONBody(t, w.Body, &payload)

	if _, ok := payload["request_id"]; ok {
		t.Fatal("did not expect request_id field in success JSON body")
	}
	if got, ok := payload["result"].(float64); !ok || got != 5 {
		t.Fatalf("expected result 5, got %#v", payload["result"])
	}
	if got := payload["message"]; got != "Success" {
		t.Fatalf("expected message Success, got %#v", got)
	}
}

func TestNewRouterEmptyInputLeavesHistoryUnchanged(t *testing.T) {
	router, store := newTestRouter(t)

	ok := testutil.NewJSONRequest(http.MethodPost, "/calculate", `{"numbers":[1,2],"operation":"SUM"}`)
	testutil.CheckResponseCode(t, http.StatusOK, testutil.ExecuteRequest(ok, router).Code)

	before, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	for _, op := range calculator.Operations {
		req := testutil.NewJSONRequest(http.MethodPost, "/calculate", `{"numbers":[],"operation":"`+string(op)+`"}`)
		w := testutil.ExecuteRequest(req, router)
		testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

		var body map[string]string
		testutil.DecodeJSONBody(t, w.Body, &body)
		if body["detail"] == "" {
			t.Fatalf("%s: expected detail message", op)
		}
	}

	after, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("expected %d records, got %d", len(before), len(after))
	}
}

func TestNewRouterCORSEchoesOriginWithCredentials(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := testutil.ExecuteRequest(req, router)

	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected origin to be echoed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials header true, got %q", got)
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	cfg := config.Default().CORS
	cfg.AllowedOrigins = []string{"https://allowed.example"}

	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://allowed.example", want: "https://allowed.example"},
		{origin: "https://evil.example", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/history", nil)
			req.Header.Set("Origin", tc.origin)
			w := testutil.ExecuteRequest(req, h)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Fatalf("expected Access-Control-Allow-Origin %q, got %q", tc.want, got)
			}
		})
	}
}
