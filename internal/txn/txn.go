// Package txn implements the per-connection MULTI/EXEC/WATCH state
// machine, independent of the RESP wire format and of what a queued
// command actually does.
package txn

import (
	"errors"

	"github.com/adred-codev/kvredis/internal/store"
)

// State is the connection's transaction state.
type State int

const (
	// Normal: commands execute immediately.
	Normal State = iota
	// Queuing: between MULTI and EXEC/DISCARD, commands are queued
	// rather than executed.
	Queuing
)

// ErrNestedMulti is returned by Multi when already queuing.
var ErrNestedMulti = errors.New("ERR MULTI calls can not be nested")

// ErrNotInMulti is returned by Exec when not queuing.
var ErrNotInMulti = errors.New("ERR EXEC without MULTI")

// ErrDiscardWithoutMulti is returned by Discard when not queuing.
var ErrDiscardWithoutMulti = errors.New("ERR DISCARD without MULTI")

// ErrWatchInMulti is returned by Watch when called while queuing.
var ErrWatchInMulti = errors.New("ERR WATCH inside MULTI is not allowed")

// ErrExecAbort is returned by Exec when a queuing-time error occurred
// (unknown command, bad arity, nested MULTI, or WATCH inside MULTI); the
// transaction is discarded without running anything.
var ErrExecAbort = errors.New("EXECABORT Transaction discarded because of previous errors")

// QueuedCommand is an opaque command awaiting EXEC. The command package
// supplies Name/Args and later re-dispatches them; txn never inspects
// the payload.
type QueuedCommand struct {
	Name string
	Args [][]byte
}

// watchEntry pins a key's version and the owning shard's generation at
// WATCH time. A shard-wide FLUSHDB/FLUSHALL bumps generation, dirtying
// every watch on that shard without needing to touch each key.
type watchEntry struct {
	shard      *store.Shard
	key        string
	version    uint64
	generation uint64
}

// State machine per client connection. Not safe for concurrent use —
// a connection is owned by exactly one goroutine at a time.
type Txn struct {
	state   State
	queue   []QueuedCommand
	watches []watchEntry
	dirty   bool // a queuing-time error occurred; EXEC will EXECABORT
}

// New returns a transaction state machine in Normal state.
func New() *Txn { return &Txn{} }

// State reports the current state.
func (t *Txn) State() State { return t.state }

// Multi begins queuing. Nesting MULTI is itself a queuing-time error: it
// dirties the transaction so the eventual EXEC replies EXECABORT instead
// of running whatever was already queued.
func (t *Txn) Multi() error {
	if t.state == Queuing {
		t.dirty = true
		return ErrNestedMulti
	}
	t.state = Queuing
	t.queue = nil
	t.dirty = false
	return nil
}

// Queue appends a command while queuing. Callers must check State()
// first; Queue panics if called outside Queuing to surface a dispatcher
// bug rather than silently misbehaving.
func (t *Txn) Queue(cmd QueuedCommand) {
	if t.state != Queuing {
		panic("txn: Queue called outside MULTI")
	}
	t.queue = append(t.queue, cmd)
}

// MarkDirty records that a queuing-time error occurred (unknown command
// or wrong arity while queuing). The connection stays in Queuing —
// Redis still accepts further QUEUED commands — but EXEC will abort.
func (t *Txn) MarkDirty() {
	if t.state == Queuing {
		t.dirty = true
	}
}

// Discard abandons the transaction, clearing the queue and all watches.
func (t *Txn) Discard() error {
	if t.state != Queuing {
		return ErrDiscardWithoutMulti
	}
	t.reset()
	return nil
}

// Watch records key's current version on shard. Only legal in Normal
// state; Redis rejects WATCH once MULTI has been called, and the
// rejection itself dirties the transaction so EXEC aborts.
func (t *Txn) Watch(shard *store.Shard, key string) error {
	if t.state == Queuing {
		t.dirty = true
		return ErrWatchInMulti
	}
	version, generation := shard.VersionOf(key)
	for _, w := range t.watches {
		if w.shard == shard && w.key == key {
			return nil // already watched; keep the original snapshot
		}
	}
	t.watches = append(t.watches, watchEntry{shard: shard, key: key, version: version, generation: generation})
	return nil
}

// Unwatch clears every watched key, independent of transaction state
// (UNWATCH is legal at any time).
func (t *Txn) Unwatch() {
	t.watches = nil
}

// Dirty reports whether any watched key has changed (different version)
// or its shard has been flushed (different generation) since WATCH.
func (t *Txn) Dirty() bool {
	for _, w := range t.watches {
		version, generation := w.shard.VersionOf(w.key)
		if version != w.version || generation != w.generation {
			return true
		}
	}
	return false
}

// Exec ends the transaction, returning the queued commands to run, or
// an error if EXEC isn't valid right now, or (nil, true, nil) if the
// transaction was aborted by a dirty watch (EXEC should reply with a
// null array, not an error). Whenever Exec was called while queuing, the
// Txn is back in Normal state with its queue and watches cleared.
func (t *Txn) Exec() (cmds []QueuedCommand, watchAborted bool, err error) {
	if t.state != Queuing {
		return nil, false, ErrNotInMulti
	}
	if t.dirty {
		t.reset()
		return nil, false, ErrExecAbort
	}
	if t.Dirty() {
		t.reset()
		return nil, true, nil
	}
	cmds = t.queue
	t.reset()
	return cmds, false, nil
}

func (t *Txn) reset() {
	t.state = Normal
	t.queue = nil
	t.watches = nil
	t.dirty = false
}
