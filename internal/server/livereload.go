package server

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/postforge/internal/logfields"
	"git.home.luguber.info/inful/postforge/internal/metrics"
)

// Snapshot is the live-reload state reported to browsers.
type Snapshot struct {
	Generation uint64 `json:"generation"`
	Error      bool   `json:"error"`
}

// Hub manages SSE clients waiting for generation changes.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*lrClient
	recorder metrics.Recorder
	closed   bool
	current  Snapshot

	heartbeat time.Duration
}

type lrClient struct {
	ch   chan Snapshot
	done chan struct{}
}

// NewHub returns an empty hub.
func NewHub(r metrics.Recorder) *Hub {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	return &Hub{clients: map[int]*lrClient{}, recorder: r, heartbeat: 30 * time.Second}
}

// Current returns the last published snapshot.
func (h *Hub) Current() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP streams snapshots as server-sent events.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &lrClient{ch: make(chan Snapshot, 8), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	id := h.nextID
	h.nextID++
	h.clients[id] = client
	current := h.current
	count := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetLiveReloadClients(count)
	defer h.removeClient(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		return
	}
	if err := writeEvent(bw, current); err != nil {
		slog.Debug("Live-reload write failed", logfields.Error(err))
		return
	}
	if err := bw.Flush(); err != nil {
		return
	}
	flusher.Flush()

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				return
			}
		case snap := <-client.ch:
			if err := writeEvent(bw, snap); err != nil {
				slog.Debug("Live-reload write failed", logfields.Error(err))
				return
			}
		}
		if err := bw.Flush(); err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeEvent(bw *bufio.Writer, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := bw.WriteString("data: "); err != nil {
		return err
	}
	if _, err := bw.Write(data); err != nil {
		return err
	}
	_, err = bw.WriteString("\n\n")
	return err
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.recorder.SetLiveReloadClients(count)
	}
}

// Publish records the outcome of a pass and notifies every client. Clients
// whose buffers are full are disconnected; their browsers reconnect and
// receive the current snapshot.
func (h *Hub) Publish(generation uint64, failed bool) {
	snap := Snapshot{Generation: generation, Error: failed}
	h.mu.Lock()
	if h.closed || snap == h.current {
		h.mu.Unlock()
		return
	}
	h.current = snap
	ids := make([]int, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	var stale []int
	for _, id := range ids {
		select {
		case h.clients[id].ch <- snap:
		default:
			stale = append(stale, id)
		}
	}
	h.mu.Unlock()
	for _, id := range stale {
		h.removeClient(id)
	}
	slog.Debug("Live-reload broadcast",
		logfields.Generation(generation),
		slog.Int("clients", len(ids)),
		slog.Int("dropped", len(stale)))
}

// Shutdown disconnects every client and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetLiveReloadClients(0)
}

// ClientScript connects to the SSE endpoint and reloads when the generation
// advances. Browsers without EventSource poll the generation endpoint.
const ClientScript = `(() => {
  if (window.__POSTFORGE_LR__) return;
  window.__POSTFORGE_LR__ = true;
  let current = null;
  function apply(p) {
    if (p.error) console.warn('[postforge] last build failed, serving previous output');
    if (current === null) { current = p.generation; return; }
    if (p.generation > current) { location.reload(); }
  }
  function poll() {
    fetch('/__generation').then(r => r.json()).then(apply).catch(() => {}).finally(() => setTimeout(poll, 1000));
  }
  function connect() {
    if (!window.EventSource) { poll(); return; }
    const es = new EventSource('/__livereload');
    es.onmessage = (e) => { try { apply(JSON.parse(e.data)); } catch (_) {} };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();`
