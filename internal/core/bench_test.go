package core

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func benchRegister(b *testing.B, hub *Hub, id string) *Client {
	b.Helper()

	c := NewClient(id)
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandRegister}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-c.Events:
			if ev.Kind == EventSync && ev.Sync != nil && ev.Sync.ID == id {
				return c
			}
		default:
			time.Sleep(time.Millisecond)
		}
	}
	b.Fatalf("client %s did not register", id)
	return nil
}

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, "bench", nil)
	go hub.Run(ctx)

	sender := benchRegister(b, hub, "sender")

	clients := make([]*Client, 0, recipients)
	invited := make([]string, 0, recipients)
	for i := 0; i < recipients; i++ {
		id := fmt.Sprintf("c%d", i)
		clients = append(clients, benchRegister(b, hub, id))
		invited = append(invited, id)
	}

	sender.Commands <- &Command{Kind: CommandCreateRoom, Text: "bench", Invited: invited}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendMessage, Room: "bench", Text: "payload"}
		for ev := range target.Events {
			if ev.Kind == EventRoomMessage {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
