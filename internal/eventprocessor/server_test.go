// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventprocessor

import (
	"context"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

func TestEmbeddedServer_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv, err := NewEmbeddedServer(&ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1, // random
		StoreDir:          t.TempDir(),
		JetStreamMaxMem:   64 << 20,
		JetStreamMaxStore: 256 << 20,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx) //nolint:errcheck // test cleanup
	})
	if !srv.IsRunning() || !srv.JetStreamEnabled() {
		t.Fatal("embedded server not running with JetStream")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream.New() error = %v", err)
	}

	streamCfg := DefaultStreamConfig()
	initializer, err := NewStreamInitializer(js, &streamCfg)
	if err != nil {
		t.Fatalf("NewStreamInitializer() error = %v", err)
	}
	for i := 0; i < 2; i++ { // second call takes the update path
		if _, err := initializer.EnsureStream(ctx); err != nil {
			t.Fatalf("EnsureStream() #%d error = %v", i+1, err)
		}
	}

	subCfg := DefaultSubscriberConfig(srv.ClientURL())
	sub, err := NewSubscriber(&subCfg, nil)
	if err != nil {
		t.Fatalf("NewSubscriber() error = %v", err)
	}
	defer func() { _ = sub.Close() }() //nolint:errcheck // test cleanup

	messages, err := sub.Subscribe(ctx, testOrdersTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	pub, err := NewPublisher(DefaultPublisherConfig(srv.ClientURL()), nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer func() { _ = pub.Close() }() //nolint:errcheck // test cleanup

	event := NewOrderEvent("shop-a", []rules.Order{{ID: "o1", Items: []rules.OrderItem{{ProductID: "p1"}}}})
	if err := pub.PublishOrders(ctx, testOrdersTopic, event); err != nil {
		t.Fatalf("PublishOrders() error = %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		decoded, err := DecodeOrderEvent(msg.Payload)
		if err != nil {
			t.Fatalf("DecodeOrderEvent() error = %v", err)
		}
		if decoded.EventID != event.EventID || msg.Metadata.Get(metadataTenant) != "shop-a" {
			t.Errorf("received %+v with metadata %v", decoded, msg.Metadata)
		}
	case <-ctx.Done():
		t.Fatal("message not received over NATS")
	}
}

func TestNewStreamInitializer_Validation(t *testing.T) {
	if _, err := NewStreamInitializer(nil, &StreamConfig{Name: "S", Subjects: []string{"a"}}); err == nil {
		t.Error("NewStreamInitializer(nil js) error = nil")
	}
}
