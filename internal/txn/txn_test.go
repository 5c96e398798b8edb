package txn

import (
	"errors"
	"testing"

	"github.com/adred-codev/kvredis/internal/store"
)

func TestMultiQueueExec(t *testing.T) {
	tx := New()
	if err := tx.Multi(); err != nil {
		t.Fatalf("Multi failed: %v", err)
	}
	if tx.State() != Queuing {
		t.Fatalf("expected Queuing state after Multi")
	}
	tx.Queue(QueuedCommand{Name: "SET", Args: [][]byte{[]byte("k"), []byte("v")}})
	cmds, aborted, err := tx.Exec()
	if err != nil || aborted {
		t.Fatalf("Exec: aborted=%v err=%v", aborted, err)
	}
	if len(cmds) != 1 || cmds[0].Name != "SET" {
		t.Fatalf("unexpected queued commands: %v", cmds)
	}
	if tx.State() != Normal {
		t.Fatalf("Exec should reset state to Normal")
	}
}

func TestNestedMultiRejected(t *testing.T) {
	tx := New()
	tx.Multi()
	if err := tx.Multi(); !errors.Is(err, ErrNestedMulti) {
		t.Fatalf("expected ErrNestedMulti, got %v", err)
	}
}

func TestExecWithoutMulti(t *testing.T) {
	tx := New()
	_, _, err := tx.Exec()
	if !errors.Is(err, ErrNotInMulti) {
		t.Fatalf("expected ErrNotInMulti, got %v", err)
	}
}

func TestDiscardClearsQueue(t *testing.T) {
	tx := New()
	tx.Multi()
	tx.Queue(QueuedCommand{Name: "SET"})
	if err := tx.Discard(); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if tx.State() != Normal {
		t.Fatalf("Discard should reset to Normal")
	}
}

func TestDirtyMarksExecAbort(t *testing.T) {
	tx := New()
	tx.Multi()
	tx.MarkDirty()
	_, _, err := tx.Exec()
	if !errors.Is(err, ErrExecAbort) {
		t.Fatalf("expected ErrExecAbort, got %v", err)
	}
}

func TestWatchDirtiesOnConcurrentWrite(t *testing.T) {
	shard := store.NewShard(0)
	shard.Set("k", []byte("v1"), store.SetPolicy{})

	tx := New()
	if err := tx.Watch(shard, "k"); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if tx.Dirty() {
		t.Fatalf("should not be dirty before any change")
	}

	shard.Set("k", []byte("v2"), store.SetPolicy{})
	if !tx.Dirty() {
		t.Fatalf("should be dirty after the watched key changed")
	}

	tx.Multi()
	tx.Queue(QueuedCommand{Name: "GET", Args: [][]byte{[]byte("k")}})
	cmds, aborted, err := tx.Exec()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !aborted || cmds != nil {
		t.Fatalf("expected EXEC to report a watch abort, got aborted=%v cmds=%v", aborted, cmds)
	}
}

func TestWatchDirtiesOnFlush(t *testing.T) {
	shard := store.NewShard(0)
	shard.Set("k", []byte("v"), store.SetPolicy{})

	tx := New()
	tx.Watch(shard, "k")
	shard.FlushDB()
	if !tx.Dirty() {
		t.Fatalf("FlushDB should dirty every watch on the shard via generation bump")
	}
}

func TestWatchRejectedInsideMulti(t *testing.T) {
	shard := store.NewShard(0)
	tx := New()
	tx.Multi()
	if err := tx.Watch(shard, "k"); !errors.Is(err, ErrWatchInMulti) {
		t.Fatalf("expected ErrWatchInMulti, got %v", err)
	}
}

func TestNestedMultiDirtiesExec(t *testing.T) {
	tx := New()
	tx.Multi()
	tx.Multi() // nested, rejected
	tx.Queue(QueuedCommand{Name: "SET"})
	_, aborted, err := tx.Exec()
	if !errors.Is(err, ErrExecAbort) || aborted {
		t.Fatalf("expected nested MULTI to EXECABORT, got aborted=%v err=%v", aborted, err)
	}
}

func TestWatchInsideMultiDirtiesExec(t *testing.T) {
	shard := store.NewShard(0)
	tx := New()
	tx.Multi()
	tx.Watch(shard, "k") // rejected, queuing continues
	tx.Queue(QueuedCommand{Name: "SET"})
	_, aborted, err := tx.Exec()
	if !errors.Is(err, ErrExecAbort) || aborted {
		t.Fatalf("expected WATCH inside MULTI to EXECABORT, got aborted=%v err=%v", aborted, err)
	}
}

func TestUnwatchClearsWatches(t *testing.T) {
	shard := store.NewShard(0)
	shard.Set("k", []byte("v"), store.SetPolicy{})
	tx := New()
	tx.Watch(shard, "k")
	tx.Unwatch()
	shard.Set("k", []byte("v2"), store.SetPolicy{})
	if tx.Dirty() {
		t.Fatalf("Dirty should report false once all watches are cleared")
	}
}
