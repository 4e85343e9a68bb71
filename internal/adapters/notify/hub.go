package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.trai.ch/press/internal/core/ports"
)

var _ ports.Notifier = (*Hub)(nil)

const (
	clientBuffer      = 8
	heartbeatInterval = 30 * time.Second
)

type event struct {
	name string
	data string
}

type client struct {
	ch   chan event
	done chan struct{}
}

// Hub is the live-reload endpoint. Browsers subscribe with server-sent events;
// every reload broadcasts a new build token. Clients whose buffer is full are dropped.
type Hub struct {
	mu      sync.Mutex
	nextID  int
	clients map[int]*client
	build   uint64
	closed  bool

	metrics   ports.Metrics
	heartbeat time.Duration
}

// NewHub creates a Hub reporting the client count to metrics.
func NewHub(metrics ports.Metrics) *Hub {
	return &Hub{
		clients:   make(map[int]*client),
		metrics:   metrics,
		heartbeat: heartbeatInterval,
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// NotifyReload implements ports.Notifier.
func (h *Hub) NotifyReload() {
	h.mu.Lock()
	h.build++
	token := strconv.FormatUint(h.build, 10)
	h.mu.Unlock()

	h.broadcast(event{name: "reload", data: `{"build":"` + token + `"}`})
}

// NotifyError implements ports.Notifier. Browsers log the failure to the console.
func (h *Hub) NotifyError(stage, message string) {
	data, _ := json.Marshal(map[string]string{"stage": stage, "message": message})
	h.broadcast(event{name: "build-error", data: string(data)})
}

func (h *Hub) broadcast(ev event) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	var dropped []int
	for id, c := range h.clients {
		select {
		case c.ch <- ev:
		default:
			dropped = append(dropped, id)
		}
	}
	for _, id := range dropped {
		h.removeLocked(id)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if len(dropped) > 0 {
		h.metrics.SetLiveReloadClients(n)
	}
}

// ServeHTTP implements the server-sent events endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	c := &client{ch: make(chan event, clientBuffer), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "live-reload shutting down", http.StatusServiceUnavailable)
		return
	}
	id := h.nextID
	h.nextID++
	h.clients[id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetLiveReloadClients(n)

	defer func() {
		h.mu.Lock()
		h.removeLocked(id)
		n := len(h.clients)
		h.mu.Unlock()
		h.metrics.SetLiveReloadClients(n)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-c.ch:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Shutdown disconnects every client and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id := range h.clients {
		h.removeLocked(id)
	}
}

// removeLocked forgets a client and closes its done channel once. Callers hold mu.
func (h *Hub) removeLocked(id int) {
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Script is the client served at /livereload.js.
const Script = `(function () {
  if (window.__pressLiveReload) return;
  window.__pressLiveReload = true;
  function connect() {
    var es = new EventSource('/livereload');
    es.addEventListener('reload', function () { location.reload(); });
    es.addEventListener('build-error', function (e) {
      try {
        var p = JSON.parse(e.data);
        console.error('[press] ' + p.stage + ': ' + p.message);
      } catch (_) {}
    });
    es.onerror = function () { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
