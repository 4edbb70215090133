package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"nsv-dashboard/models"
)

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func recv(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a broadcast payload")
		return nil
	}
}

func TestHubBroadcastReachesRegisteredClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitUntil(t, "client registration", func() bool {
		clients, _ := hub.GetStats()
		return clients == 1
	})

	hub.Broadcast(models.MsgNotify, map[string]string{"level": "info", "message": "synced"})

	var msg models.BroadcastMessage
	if err := json.Unmarshal(recv(t, client.send), &msg); err != nil {
		t.Fatalf("broadcast payload is not JSON: %v", err)
	}
	if msg.Type != models.MsgNotify {
		t.Errorf("message type = %q, want %q", msg.Type, models.MsgNotify)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["level"] != "info" {
		t.Errorf("message data = %#v", msg.Data)
	}
	if msg.Timestamp.IsZero() {
		t.Error("broadcast timestamp not set")
	}

	if _, seq := hub.GetStats(); seq != 1 {
		t.Errorf("event sequence = %d, want 1", seq)
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub, nil)
	hub.Register <- client
	hub.Unregister <- client

	waitUntil(t, "client removal", func() bool {
		clients, _ := hub.GetStats()
		return clients == 0
	})

	if _, open := <-client.send; open {
		t.Error("send channel still open after unregister")
	}
}

func TestHubDropsClientWithFullSendBuffer(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitUntil(t, "client registration", func() bool {
		clients, _ := hub.GetStats()
		return clients == 1
	})

	for i := 0; i < cap(client.send); i++ {
		client.send <- []byte("{}")
	}

	hub.Broadcast(models.MsgDatasetStats, nil)

	waitUntil(t, "stuck client eviction", func() bool {
		clients, _ := hub.GetStats()
		return clients == 0
	})
}

func TestHubStopDisconnectsEverything(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := NewClient(hub, nil)
	second := NewClient(hub, nil)
	hub.Register <- first
	hub.Register <- second
	waitUntil(t, "both registrations", func() bool {
		clients, _ := hub.GetStats()
		return clients == 2
	})

	hub.Stop()

	waitUntil(t, "shutdown cleanup", func() bool {
		clients, _ := hub.GetStats()
		return clients == 0
	})
	if _, open := <-first.send; open {
		t.Error("first client's send channel survived shutdown")
	}
	if _, open := <-second.send; open {
		t.Error("second client's send channel survived shutdown")
	}

	// Broadcast after shutdown must not block the caller.
	done := make(chan struct{})
	go func() {
		hub.Broadcast(models.MsgNotify, "late")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked after hub stop")
	}
}

func TestHubDropsUnmarshalableBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitUntil(t, "client registration", func() bool {
		clients, _ := hub.GetStats()
		return clients == 1
	})

	hub.Broadcast(models.MsgNotify, func() {})

	select {
	case payload := <-client.send:
		t.Errorf("unmarshalable broadcast delivered anyway: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
	if _, seq := hub.GetStats(); seq != 0 {
		t.Errorf("event sequence = %d after a dropped broadcast, want 0", seq)
	}
}
