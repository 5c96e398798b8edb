package command

import (
	"bytes"
	"testing"

	"github.com/adred-codev/kvredis/internal/pubsub"
	"github.com/adred-codev/kvredis/internal/resp"
	"github.com/adred-codev/kvredis/internal/store"
)

func newTestContext() (*Context, *bytes.Buffer) {
	var buf bytes.Buffer
	ctx := NewContext(store.NewRegistry(4), pubsub.NewHub(nil), resp.NewWriter(&buf), 1)
	return ctx, &buf
}

func run(ctx *Context, buf *bytes.Buffer, args ...string) string {
	buf.Reset()
	argv := make([][]byte, len(args))
	for i, a := range args {
		argv[i] = []byte(a)
	}
	Dispatch(ctx, argv)
	ctx.Out.Flush()
	return buf.String()
}

func TestSetGet(t *testing.T) {
	ctx, buf := newTestContext()
	if got := run(ctx, buf, "SET", "k", "v"); got != "+OK\r\n" {
		t.Fatalf("SET reply = %q", got)
	}
	if got := run(ctx, buf, "GET", "k"); got != "$1\r\nv\r\n" {
		t.Fatalf("GET reply = %q", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	ctx, buf := newTestContext()
	if got := run(ctx, buf, "GET", "missing"); got != "$-1\r\n" {
		t.Fatalf("GET reply = %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	ctx, buf := newTestContext()
	got := run(ctx, buf, "NOTACOMMAND")
	if len(got) == 0 || got[0] != '-' {
		t.Fatalf("expected an error reply, got %q", got)
	}
}

func TestWrongArity(t *testing.T) {
	ctx, buf := newTestContext()
	got := run(ctx, buf, "GET")
	if len(got) == 0 || got[0] != '-' {
		t.Fatalf("expected a wrong-arity error, got %q", got)
	}
}

func TestWrongTypeError(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SET", "k", "v")
	got := run(ctx, buf, "LPUSH", "k", "x")
	if len(got) == 0 || got[0] != '-' || !bytes.HasPrefix([]byte(got), []byte("-WRONGTYPE")) {
		t.Fatalf("expected WRONGTYPE error, got %q", got)
	}
}

func TestMultiExec(t *testing.T) {
	ctx, buf := newTestContext()
	if got := run(ctx, buf, "MULTI"); got != "+OK\r\n" {
		t.Fatalf("MULTI reply = %q", got)
	}
	if got := run(ctx, buf, "SET", "k", "v"); got != "+QUEUED\r\n" {
		t.Fatalf("queued SET reply = %q", got)
	}
	if got := run(ctx, buf, "GET", "k"); got != "+QUEUED\r\n" {
		t.Fatalf("queued GET reply = %q", got)
	}
	got := run(ctx, buf, "EXEC")
	want := "*2\r\n+OK\r\n$1\r\nv\r\n"
	if got != want {
		t.Fatalf("EXEC reply = %q, want %q", got, want)
	}
}

func TestExecAbortsOnUnknownQueuedCommand(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "MULTI")
	run(ctx, buf, "NOTACOMMAND")
	got := run(ctx, buf, "EXEC")
	if !bytes.HasPrefix([]byte(got), []byte("-EXECABORT")) {
		t.Fatalf("expected EXECABORT, got %q", got)
	}
}

func TestWatchAbortsExecOnDirtyKey(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SET", "k", "v1")
	run(ctx, buf, "WATCH", "k")
	run(ctx, buf, "SET", "k", "v2")
	run(ctx, buf, "MULTI")
	run(ctx, buf, "GET", "k")
	got := run(ctx, buf, "EXEC")
	if got != "*-1\r\n" {
		t.Fatalf("expected a null array for a dirtied watch, got %q", got)
	}
}

func TestSelectAndCrossDBIsolation(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SET", "k", "v")
	if got := run(ctx, buf, "SELECT", "1"); got != "+OK\r\n" {
		t.Fatalf("SELECT reply = %q", got)
	}
	if got := run(ctx, buf, "GET", "k"); got != "$-1\r\n" {
		t.Fatalf("expected key to be invisible in another database, got %q", got)
	}
}

func TestSubscribeRestrictsCommandSet(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SUBSCRIBE", "ch")
	got := run(ctx, buf, "GET", "k")
	if len(got) == 0 || got[0] != '-' {
		t.Fatalf("expected commands other than pub/sub ones to be rejected while subscribed, got %q", got)
	}
}

func TestNestedMultiAbortsExec(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "MULTI")
	got := run(ctx, buf, "MULTI")
	if !bytes.HasPrefix([]byte(got), []byte("-ERR MULTI calls can not be nested")) {
		t.Fatalf("nested MULTI reply = %q", got)
	}
	run(ctx, buf, "SET", "k", "v")
	got = run(ctx, buf, "EXEC")
	if !bytes.HasPrefix([]byte(got), []byte("-EXECABORT")) {
		t.Fatalf("expected EXECABORT after nested MULTI, got %q", got)
	}
	if got := run(ctx, buf, "GET", "k"); got != "$-1\r\n" {
		t.Fatalf("expected queued SET to never have run, got %q", got)
	}
}

func TestWatchInsideMultiAbortsExec(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "MULTI")
	got := run(ctx, buf, "WATCH", "k")
	if !bytes.HasPrefix([]byte(got), []byte("-ERR WATCH inside MULTI is not allowed")) {
		t.Fatalf("WATCH-inside-MULTI reply = %q", got)
	}
	run(ctx, buf, "SET", "k", "v")
	got = run(ctx, buf, "EXEC")
	if !bytes.HasPrefix([]byte(got), []byte("-EXECABORT")) {
		t.Fatalf("expected EXECABORT after WATCH inside MULTI, got %q", got)
	}
	if got := run(ctx, buf, "GET", "k"); got != "$-1\r\n" {
		t.Fatalf("expected queued SET to never have run, got %q", got)
	}
}

func TestPingInSubscribeModeRepliesWithArray(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SUBSCRIBE", "ch")
	buf.Reset()
	if got := run(ctx, buf, "PING"); got != "*2\r\n$4\r\npong\r\n$0\r\n\r\n" {
		t.Fatalf("subscribe-mode PING reply = %q", got)
	}
	if got := run(ctx, buf, "PING", "hi"); got != "*2\r\n$4\r\npong\r\n$2\r\nhi\r\n" {
		t.Fatalf("subscribe-mode PING with arg reply = %q", got)
	}
}

func TestResetClearsTxnSubscriptionsAndDB(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SELECT", "2")
	run(ctx, buf, "SUBSCRIBE", "ch")
	buf.Reset()

	if got := run(ctx, buf, "RESET"); got != "+RESET\r\n" {
		t.Fatalf("RESET reply = %q", got)
	}
	if ctx.DBIndex() != 0 {
		t.Fatalf("expected RESET to select db 0, got %d", ctx.DBIndex())
	}
	if got := run(ctx, buf, "GET", "k"); len(got) == 0 || got[0] == '-' {
		t.Fatalf("expected RESET to leave subscribe mode, got %q", got)
	}
	// MULTI is refused in subscribe mode, so the transaction is opened
	// only now that RESET has left it.
	run(ctx, buf, "MULTI")
	run(ctx, buf, "RESET")
	got := run(ctx, buf, "EXEC")
	if !bytes.HasPrefix([]byte(got), []byte("-ERR EXEC without MULTI")) {
		t.Fatalf("expected RESET to discard the pending MULTI, got %q", got)
	}
}

func TestClientIDGetNameSetName(t *testing.T) {
	ctx, buf := newTestContext()
	if got := run(ctx, buf, "CLIENT", "GETNAME"); got != "$0\r\n\r\n" {
		t.Fatalf("CLIENT GETNAME reply = %q", got)
	}
	if got := run(ctx, buf, "CLIENT", "SETNAME", "bob"); got != "+OK\r\n" {
		t.Fatalf("CLIENT SETNAME reply = %q", got)
	}
	if got := run(ctx, buf, "CLIENT", "GETNAME"); got != "$3\r\nbob\r\n" {
		t.Fatalf("CLIENT GETNAME after SETNAME reply = %q", got)
	}
	if got := run(ctx, buf, "CLIENT", "ID"); got != ":1\r\n" {
		t.Fatalf("CLIENT ID reply = %q", got)
	}
}

func TestUnlinkRemovesKey(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SET", "k", "v")
	if got := run(ctx, buf, "UNLINK", "k"); got != ":1\r\n" {
		t.Fatalf("UNLINK reply = %q", got)
	}
	if got := run(ctx, buf, "GET", "k"); got != "$-1\r\n" {
		t.Fatalf("expected key removed after UNLINK, got %q", got)
	}
}

func TestGetExPersistsAndSetsTTL(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SET", "k", "v")
	if got := run(ctx, buf, "GETEX", "k", "EX", "100"); got != "$1\r\nv\r\n" {
		t.Fatalf("GETEX reply = %q", got)
	}
	if got := run(ctx, buf, "TTL", "k"); got == ":-1\r\n" || got == ":-2\r\n" {
		t.Fatalf("expected a TTL after GETEX EX, got %q", got)
	}
	if got := run(ctx, buf, "GETEX", "k", "PERSIST"); got != "$1\r\nv\r\n" {
		t.Fatalf("GETEX PERSIST reply = %q", got)
	}
	if got := run(ctx, buf, "TTL", "k"); got != ":-1\r\n" {
		t.Fatalf("expected TTL cleared after GETEX PERSIST, got %q", got)
	}
}

func TestObjectRefcount(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SET", "k", "v")
	if got := run(ctx, buf, "OBJECT", "REFCOUNT", "k"); got != ":1\r\n" {
		t.Fatalf("OBJECT REFCOUNT reply = %q", got)
	}
	got := run(ctx, buf, "OBJECT", "REFCOUNT", "missing")
	if len(got) == 0 || got[0] != '-' {
		t.Fatalf("expected an error for a missing key, got %q", got)
	}
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	ctx, buf := newTestContext()
	run(ctx, buf, "SUBSCRIBE", "ch")
	buf.Reset()

	var pubBuf bytes.Buffer
	pubCtx := NewContext(ctx.Registry, ctx.Hub, resp.NewWriter(&pubBuf), 2)
	if got := run(pubCtx, &pubBuf, "PUBLISH", "ch", "hello"); got != ":1\r\n" {
		t.Fatalf("PUBLISH reply = %q", got)
	}

	msg := <-ctx.Sub.Mailbox()
	if msg.Channel != "ch" || string(msg.Payload) != "hello" {
		t.Fatalf("unexpected delivered message: %+v", msg)
	}
}
