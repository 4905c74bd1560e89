// Command gridformd runs a headless engine.Engine and exposes its
// events over a websocket bridge (and, if -zmq is set, a ZeroMQ PUB
// socket too). It is demo wiring for the Event Bus -- not a claim
// that gridform is a hosted multi-user product.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridform/gridform/engine"
	"github.com/gridform/gridform/transport/wsbridge"
	"github.com/gridform/gridform/transport/zmqbridge"
)

func main() {
	addr := flag.String("addr", envOr("GRIDFORM_ADDR", ":8080"), "websocket listen address")
	zmqAddr := flag.String("zmq", envOr("GRIDFORM_ZMQ_ADDR", ""), "ZeroMQ PUB bind address, e.g. tcp://127.0.0.1:5556 (disabled if empty)")
	workbook := flag.String("workbook", "Book1", "default workbook name")
	sheet := flag.String("sheet", "Sheet1", "default sheet name")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng := engine.New()
	eng.AddWorkbook(*workbook)
	eng.AddSheet(*workbook, *sheet)

	hub := wsbridge.NewHub(eng)

	if *zmqAddr != "" {
		pub, err := zmqbridge.Listen(ctx, *zmqAddr, eng)
		if err != nil {
			log.Fatalf("gridformd: %v", err)
		}
		defer pub.Close()
		log.Printf("gridformd: publishing events on %s", *zmqAddr)
	}

	log.Printf("gridformd: serving websocket bridge on %s", *addr)
	if err := wsbridge.Serve(ctx, *addr, hub); err != nil {
		log.Fatalf("gridformd: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
