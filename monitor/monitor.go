// Package monitor is a best-effort live dashboard over the Population
// snapshot — new relative to both spec.md and the Python source it was
// distilled from (see DESIGN.md), modeled on the teacher's habit of
// pairing a training loop with a small self-hosted websocket dashboard
// (tabular/server). It is strictly observational: it reads the Population
// on a timer and never touches worker or coordinator state.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mkpbt/population"
)

const (
	writeWait      = 1 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	publishPeriod  = 200 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Monitor serves a single HTML page, a JSON snapshot endpoint, and a
// websocket feed of live Population values.
type Monitor struct {
	addr string
	pop  *population.Population
	log  zerolog.Logger
}

// New constructs a Monitor bound to addr (e.g. ":8089"), reading pop.
func New(addr string, pop *population.Population, log zerolog.Logger) *Monitor {
	return &Monitor{addr: addr, pop: pop, log: log.With().Str("component", "monitor").Logger()}
}

// Serve blocks, serving HTTP until ctx is cancelled. It never returns an
// error on context cancellation; failures to bind the listener do return
// an error.
func (m *Monitor) Serve(ctx context.Context) error {
	router := mux.NewRouter()
	router.HandleFunc("/", m.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", m.serveWebsocket).Methods(http.MethodGet)
	router.HandleFunc("/api/population", m.serveSnapshot).Methods(http.MethodGet)

	srv := &http.Server{Addr: m.addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (m *Monitor) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (m *Monitor) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.pop.ReadAll()); err != nil {
		m.log.Error().Err(err).Msg("encoding population snapshot")
	}
}

func (m *Monitor) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		m.log.Error().Err(err).Msg("websocket upgrade")
		return
	}
	defer ws.Close()

	if err := publish(r.Context(), ws, m.pop, m.log); err != nil {
		m.log.Debug().Err(err).Msg("websocket client disconnected")
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>mkpbt population monitor</title></head>
<body>
<h1>mkpbt</h1>
<pre id="population">connecting...</pre>
<script>
  var ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = function(evt) {
    document.getElementById("population").textContent = evt.data;
  };
</script>
</body>
</html>`
