package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tempo/internal/ledger"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/phrazzld/tempo/internal/timer"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	router   http.Handler
	registry *timer.Registry
	ledger   *ledger.Ledger
}

// newTestEnv mounts the engine routes on a real registry and ledger with
// frozen clocks. The tick interval is long enough that nothing advances on
// its own.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := func() time.Time { return testNow }

	tcfg := timer.DefaultConfig()
	tcfg.TickInterval = time.Hour
	reg := timer.New(tcfg, testLogger(), timer.WithClock(clock))
	t.Cleanup(reg.Close)

	lcfg := ledger.DefaultConfig()
	lcfg.Location = time.UTC
	l := ledger.New(lcfg, testLogger(), ledger.WithClock(clock))

	wf, err := service.NewWorkflow(reg, l, nil, testLogger())
	require.NoError(t, err)

	timers := NewTimerHandler(reg, wf, testLogger())
	energy := NewEnergyHandler(wf, l, testLogger())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/timers", timers.Routes)
		r.Route("/energy", energy.Routes)
		r.Post("/recommendations", energy.Recommend)
	})
	r.Get("/health", HealthHandler(reg))

	return &testEnv{router: r, registry: reg, ledger: l}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func taskBody(id, priority string) map[string]interface{} {
	return map[string]interface{}{"id": id, "title": "Task " + id, "priority": priority}
}

func decodeBody(resp *http.Response, v interface{}) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
