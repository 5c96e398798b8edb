package pubsub

import "testing"

func TestSubscribePublishExact(t *testing.T) {
	h := NewHub(nil)
	sub := NewSubscriber(1, 4)
	if n := h.Subscribe("ch", sub); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}
	if delivered := h.Publish("ch", []byte("hi")); delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
	msg := <-sub.Mailbox()
	if msg.Channel != "ch" || string(msg.Payload) != "hi" || msg.Pattern != "" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(nil)
	sub := NewSubscriber(1, 4)
	h.Subscribe("ch", sub)
	if n := h.Unsubscribe("ch", sub); n != 0 {
		t.Fatalf("expected channel to be empty, got count %d", n)
	}
	if delivered := h.Publish("ch", []byte("hi")); delivered != 0 {
		t.Fatalf("expected no deliveries after unsubscribe, got %d", delivered)
	}
}

func TestPSubscribeMatchesPattern(t *testing.T) {
	h := NewHub(nil)
	sub := NewSubscriber(1, 4)
	if _, err := h.PSubscribe("news.*", sub); err != nil {
		t.Fatalf("PSubscribe error: %v", err)
	}
	if delivered := h.Publish("news.sports", []byte("goal")); delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
	msg := <-sub.Mailbox()
	if msg.Pattern != "news.*" || msg.Channel != "news.sports" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestPublishNoSubscribersReturnsZero(t *testing.T) {
	h := NewHub(nil)
	if delivered := h.Publish("nobody", []byte("x")); delivered != 0 {
		t.Fatalf("expected 0 deliveries, got %d", delivered)
	}
}

func TestPublishDropsOnFullMailboxAndReportsOnDrop(t *testing.T) {
	var droppedSub *Subscriber
	var droppedChannel string
	h := NewHub(func(sub *Subscriber, channel string) {
		droppedSub = sub
		droppedChannel = channel
	})
	sub := NewSubscriber(1, 1)
	h.Subscribe("ch", sub)
	h.Publish("ch", []byte("first"))
	h.Publish("ch", []byte("second")) // mailbox capacity 1: this one drops

	if droppedSub != sub || droppedChannel != "ch" {
		t.Fatalf("onDrop was not invoked as expected: sub=%v channel=%q", droppedSub, droppedChannel)
	}
}

func TestNumSubAndNumPat(t *testing.T) {
	h := NewHub(nil)
	a := NewSubscriber(1, 1)
	b := NewSubscriber(2, 1)
	h.Subscribe("ch", a)
	h.Subscribe("ch", b)
	h.PSubscribe("pat.*", a)

	counts := h.NumSub([]string{"ch", "other"})
	if counts["ch"] != 2 || counts["other"] != 0 {
		t.Fatalf("unexpected NumSub: %v", counts)
	}
	if h.NumPat() != 1 {
		t.Fatalf("expected 1 pattern, got %d", h.NumPat())
	}
}

func TestChannelsListsOnlyExactSubscriptions(t *testing.T) {
	h := NewHub(nil)
	sub := NewSubscriber(1, 1)
	h.Subscribe("ch1", sub)
	h.PSubscribe("ch2.*", sub)
	channels := h.Channels()
	if len(channels) != 1 || channels[0] != "ch1" {
		t.Fatalf("expected only exact channels, got %v", channels)
	}
}
