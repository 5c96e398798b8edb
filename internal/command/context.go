// Package command implements the Redis command surface: a static
// dispatch table plus per-family handlers that translate RESP argv
// into internal/store and internal/pubsub calls and write RESP replies.
package command

import (
	"github.com/adred-codev/kvredis/internal/pubsub"
	"github.com/adred-codev/kvredis/internal/resp"
	"github.com/adred-codev/kvredis/internal/store"
	"github.com/adred-codev/kvredis/internal/txn"
)

// Context is the per-connection state a command handler needs. The
// server package owns its lifetime; one Context exists per connection
// and is reused across every command on that connection.
type Context struct {
	Registry *store.Registry
	Hub      *pubsub.Hub
	Out      *resp.Writer
	Txn      *txn.Txn
	ConnID   int64

	dbIndex int

	Sub         *pubsub.Subscriber
	channels    map[string]bool
	patterns    map[string]bool
	clientName  string

	// OOMGuard, if non-nil, reports true when the process is over its
	// configured memory threshold; write commands fail with -OOM rather
	// than running while it does.
	OOMGuard func() bool

	// Quit is set by the QUIT handler to tell the connection loop to
	// close after flushing the reply.
	Quit bool
}

// NewContext builds a fresh per-connection context bound to db 0.
func NewContext(registry *store.Registry, hub *pubsub.Hub, out *resp.Writer, connID int64) *Context {
	return &Context{
		Registry: registry,
		Hub:      hub,
		Out:      out,
		Txn:      txn.New(),
		ConnID:   connID,
		channels: make(map[string]bool),
		patterns: make(map[string]bool),
	}
}

// DBIndex returns the currently selected database index.
func (c *Context) DBIndex() int { return c.dbIndex }

// SelectDB switches the connection's active database after validating
// the index against the registry's configured count.
func (c *Context) SelectDB(idx int) bool {
	if !c.Registry.Valid(idx) {
		return false
	}
	c.dbIndex = idx
	return true
}

// Shard returns the shard backing the currently selected database.
func (c *Context) Shard() *store.Shard { return c.Registry.Shard(c.dbIndex) }

// subscriptionCount reports how many channels/patterns this connection
// is currently subscribed to, which gates whether it's in "subscribe
// mode" (where most non-pubsub commands are rejected).
func (c *Context) subscriptionCount() int { return len(c.channels) + len(c.patterns) }

func (c *Context) ensureSubscriber() *pubsub.Subscriber {
	if c.Sub == nil {
		c.Sub = pubsub.NewSubscriber(c.ConnID, 1024)
	}
	return c.Sub
}
