// Package wsbridge broadcasts engine.Engine's events to connected
// websocket clients and applies the edits they send back. It is
// ambient demo wiring for the Event Bus, not a claim that gridform is
// a hosted multi-user product (concurrency across threads and
// real-time multi-user collaboration are both explicitly out of
// scope).
package wsbridge

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/engine"
	"github.com/gridform/gridform/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CellMessage is what a client receives for every cell-changed event,
// and sends to request an edit.
type CellMessage struct {
	Type     string `json:"type"`
	Workbook string `json:"workbook"`
	Sheet    string `json:"sheet"`
	A1       string `json:"a1"`
	Value    string `json:"value,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Hub relays one Engine's events to every connected client and
// applies inbound edit requests.
type Hub struct {
	eng *engine.Engine

	mu      sync.Mutex
	clients map[*websocket.Conn]string // conn -> a stable id for log correlation
}

// NewHub wires a Hub to eng's Event Bus.
func NewHub(eng *engine.Engine) *Hub {
	h := &Hub{eng: eng, clients: make(map[*websocket.Conn]string)}
	eng.On(events.CellChanged, h.onCellChanged)
	return h
}

func (h *Hub) onCellChanged(e events.Event) {
	p, ok := e.Data.(events.CellChangedPayload)
	if !ok {
		return
	}
	h.broadcast(CellMessage{
		Type:     "cell-changed",
		Workbook: p.Workbook,
		Sheet:    p.Sheet,
		A1:       address.FormatA1(p.Col, p.Row),
		Value:    p.NewValue,
	})
}

// broadcast writes msg to every connected client concurrently,
// dropping any client whose write fails.
func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	if len(conns) == 0 {
		return
	}

	var g errgroup.Group
	failed := make(chan *websocket.Conn, len(conns))
	for _, c := range conns {
		c := c
		g.Go(func() error {
			if err := c.WriteJSON(msg); err != nil {
				failed <- c
			}
			return nil
		})
	}
	_ = g.Wait()
	close(failed)

	h.mu.Lock()
	for c := range failed {
		delete(h.clients, c)
		_ = c.Close()
	}
	h.mu.Unlock()
}

// HandleWebSocket upgrades the request and serves one client
// connection until it disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsbridge: upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	h.mu.Lock()
	h.clients[conn] = clientID
	h.mu.Unlock()
	log.Printf("wsbridge: client %s connected", clientID)
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close()
		log.Printf("wsbridge: client %s disconnected", clientID)
	}()

	h.sendSnapshot(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req CellMessage
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("wsbridge: client %s sent a bad request: %v", clientID, err)
			continue
		}
		if req.Type != "set-cell" {
			continue
		}
		col, row, ok := address.ParseA1(req.A1)
		if !ok {
			continue
		}
		h.eng.SetCellContent(req.Workbook, req.Sheet, col, row, engine.ParseLiteralContent(req.Content))
	}
}

// sendSnapshot pushes every currently-defined cell in every workbook
// and sheet to a freshly connected client, so it starts from the
// engine's actual state instead of waiting for the next edit.
func (h *Hub) sendSnapshot(conn *websocket.Conn) {
	snap := h.eng.Export()
	for wb, sheets := range snap {
		for sh, cells := range sheets {
			for a1 := range cells {
				col, row, ok := address.ParseA1(a1)
				if !ok {
					continue
				}
				value, ok := h.eng.GetCellValue(wb, sh, col, row)
				if !ok {
					continue
				}
				if err := conn.WriteJSON(CellMessage{
					Type: "cell-changed", Workbook: wb, Sheet: sh, A1: a1, Value: value,
				}); err != nil {
					return
				}
			}
		}
	}
}

// Serve runs an HTTP server exposing the bridge at /ws until ctx is
// canceled.
func Serve(ctx context.Context, addr string, h *Hub) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWebSocket)
	srv := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return srv.Close()
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	return g.Wait()
}
