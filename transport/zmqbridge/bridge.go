// Package zmqbridge publishes engine.Engine's events on a ZeroMQ PUB
// socket, the same iopub broadcast pattern a Jupyter-style kernel uses
// to push output to every subscriber without tracking who's
// listening. Ambient demo wiring for the Event Bus, not a claim that
// gridform implements a hosted multi-user product.
package zmqbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-zeromq/zmq4"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/engine"
	"github.com/gridform/gridform/events"
)

// Message is the payload published for every cell-changed event.
type Message struct {
	Topic    string `json:"topic"`
	Workbook string `json:"workbook"`
	Sheet    string `json:"sheet"`
	A1       string `json:"a1"`
	Value    string `json:"value"`
}

// Publisher owns the PUB socket and its subscription to an Engine.
type Publisher struct {
	sock zmq4.Socket
}

// Listen binds a PUB socket at addr (e.g. "tcp://127.0.0.1:5556") and
// wires it to eng's Event Bus. Every cell-changed event is published
// as a two-frame message: a "cell" topic frame, then the JSON body --
// the standard ZeroMQ pub/sub topic-filter convention.
func Listen(ctx context.Context, addr string, eng *engine.Engine) (*Publisher, error) {
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(addr); err != nil {
		return nil, fmt.Errorf("zmqbridge: bind %s: %w", addr, err)
	}
	p := &Publisher{sock: sock}
	eng.On(events.CellChanged, p.onCellChanged)
	return p, nil
}

func (p *Publisher) onCellChanged(e events.Event) {
	payload, ok := e.Data.(events.CellChangedPayload)
	if !ok {
		return
	}
	body, err := json.Marshal(Message{
		Topic:    "cell",
		Workbook: payload.Workbook,
		Sheet:    payload.Sheet,
		A1:       address.FormatA1(payload.Col, payload.Row),
		Value:    payload.NewValue,
	})
	if err != nil {
		log.Printf("zmqbridge: marshal failed: %v", err)
		return
	}
	msg := zmq4.NewMsgFrom([]byte("cell"), body)
	if err := p.sock.Send(msg); err != nil {
		log.Printf("zmqbridge: send failed: %v", err)
	}
}

// Close shuts down the publisher's socket.
func (p *Publisher) Close() error {
	return p.sock.Close()
}
