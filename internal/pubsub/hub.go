// Package pubsub implements channel and glob-pattern publish/subscribe
// fan-out, independent of the database keyspace.
package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/gobwas/glob"
)

// Message is what a subscriber's mailbox receives. Pattern is empty for
// a plain channel subscription and set to the matched pattern for a
// PSUBSCRIBE delivery, mirroring RESP's message/pmessage distinction.
type Message struct {
	Channel string
	Pattern string
	Payload []byte
}

// Subscriber is a mailbox a connection drains on its write-pump
// goroutine. Mailboxes are bounded; a full mailbox means a slow
// consumer, and Publish will not block waiting for it to drain.
type Subscriber struct {
	id      int64
	mailbox chan *Message
}

// NewSubscriber creates a subscriber with the given mailbox capacity.
func NewSubscriber(id int64, mailboxSize int) *Subscriber {
	return &Subscriber{id: id, mailbox: make(chan *Message, mailboxSize)}
}

// ID returns the subscriber's connection identifier, for logging.
func (s *Subscriber) ID() int64 { return s.id }

// Mailbox exposes the receive side for the owning connection's
// write-pump to drain.
func (s *Subscriber) Mailbox() <-chan *Message { return s.mailbox }

type patternEntry struct {
	glob glob.Glob
	subs atomic.Value // []*Subscriber
}

// Hub fans PUBLISH traffic out to exact-channel and glob-pattern
// subscribers. Subscribe/Unsubscribe copy-on-write a new snapshot under
// mu and atomically swap it in. Publish holds mu's read lock only while
// it looks up the matching snapshots, and delivers from those snapshots
// after releasing it.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*atomic.Value // channel -> []*Subscriber
	patterns map[string]*patternEntry

	onDrop func(sub *Subscriber, channel string)
}

// NewHub creates an empty hub. onDrop, if non-nil, is invoked
// (outside any lock) whenever a delivery is dropped because a
// subscriber's mailbox was full; the server layer uses it to track
// per-connection strikes and disconnect chronically slow subscribers.
func NewHub(onDrop func(sub *Subscriber, channel string)) *Hub {
	return &Hub{
		channels: make(map[string]*atomic.Value),
		patterns: make(map[string]*patternEntry),
		onDrop:   onDrop,
	}
}

func loadSubs(v *atomic.Value) []*Subscriber {
	if raw := v.Load(); raw != nil {
		return raw.([]*Subscriber)
	}
	return nil
}

// Subscribe adds sub to channel's subscriber list, returning the new
// subscriber count for that channel.
func (h *Hub) Subscribe(channel string, sub *Subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.channels[channel]
	if !ok {
		v = &atomic.Value{}
		h.channels[channel] = v
	}
	cur := loadSubs(v)
	for _, s := range cur {
		if s == sub {
			return len(cur)
		}
	}
	next := append(append([]*Subscriber(nil), cur...), sub)
	v.Store(next)
	return len(next)
}

// Unsubscribe removes sub from channel, returning the remaining
// subscriber count (0 if the channel entry was removed entirely).
func (h *Hub) Unsubscribe(channel string, sub *Subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.channels[channel]
	if !ok {
		return 0
	}
	cur := loadSubs(v)
	next := make([]*Subscriber, 0, len(cur))
	for _, s := range cur {
		if s != sub {
			next = append(next, s)
		}
	}
	if len(next) == 0 {
		delete(h.channels, channel)
		return 0
	}
	v.Store(next)
	return len(next)
}

// PSubscribe compiles pattern and adds sub to its subscriber list.
func (h *Hub) PSubscribe(pattern string, sub *Subscriber) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pe, ok := h.patterns[pattern]
	if !ok {
		g, err := glob.Compile(pattern)
		if err != nil {
			return 0, err
		}
		pe = &patternEntry{glob: g}
		h.patterns[pattern] = pe
	}
	cur := loadSubs(&pe.subs)
	for _, s := range cur {
		if s == sub {
			return len(cur), nil
		}
	}
	next := append(append([]*Subscriber(nil), cur...), sub)
	pe.subs.Store(next)
	return len(next), nil
}

// PUnsubscribe removes sub from pattern, returning the remaining
// subscriber count.
func (h *Hub) PUnsubscribe(pattern string, sub *Subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	pe, ok := h.patterns[pattern]
	if !ok {
		return 0
	}
	cur := loadSubs(&pe.subs)
	next := make([]*Subscriber, 0, len(cur))
	for _, s := range cur {
		if s != sub {
			next = append(next, s)
		}
	}
	if len(next) == 0 {
		delete(h.patterns, pattern)
		return 0
	}
	pe.subs.Store(next)
	return len(next)
}

// Publish delivers payload to every exact subscriber of channel and
// every pattern subscriber whose pattern matches channel, returning the
// total number of deliveries attempted successfully (a subscriber
// counted once per matching subscription, matching Redis's receiver
// count semantics). Delivery never blocks: a full mailbox is dropped
// and reported via onDrop.
func (h *Hub) Publish(channel string, payload []byte) int {
	h.mu.RLock()
	exact := h.channels[channel]
	type matched struct {
		pattern string
		pe      *patternEntry
	}
	patterns := make([]matched, 0, len(h.patterns))
	for pattern, pe := range h.patterns {
		patterns = append(patterns, matched{pattern, pe})
	}
	h.mu.RUnlock()

	delivered := 0
	if exact != nil {
		for _, sub := range loadSubs(exact) {
			if h.deliver(sub, &Message{Channel: channel, Payload: payload}) {
				delivered++
			}
		}
	}
	for _, m := range patterns {
		if !m.pe.glob.Match(channel) {
			continue
		}
		for _, sub := range loadSubs(&m.pe.subs) {
			if h.deliver(sub, &Message{Channel: channel, Pattern: m.pattern, Payload: payload}) {
				delivered++
			}
		}
	}
	return delivered
}

func (h *Hub) deliver(sub *Subscriber, msg *Message) bool {
	select {
	case sub.mailbox <- msg:
		return true
	default:
		if h.onDrop != nil {
			h.onDrop(sub, msg.Channel)
		}
		return false
	}
}

// Channels returns every channel with at least one exact subscriber,
// for PUBSUB CHANNELS.
func (h *Hub) Channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.channels))
	for ch := range h.channels {
		out = append(out, ch)
	}
	return out
}

// NumSub returns the exact-subscriber count for each requested channel,
// for PUBSUB NUMSUB.
func (h *Hub) NumSub(channels []string) map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(channels))
	for _, ch := range channels {
		if v, ok := h.channels[ch]; ok {
			out[ch] = len(loadSubs(v))
		} else {
			out[ch] = 0
		}
	}
	return out
}

// NumPat returns the number of distinct patterns with at least one
// subscriber, for PUBSUB NUMPAT.
func (h *Hub) NumPat() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.patterns)
}
