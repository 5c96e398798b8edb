package server

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync/atomic"

	"github.com/adred-codev/kvredis/internal/command"
	"github.com/adred-codev/kvredis/internal/logging"
	"github.com/adred-codev/kvredis/internal/metrics"
	"github.com/adred-codev/kvredis/internal/pubsub"
	"github.com/adred-codev/kvredis/internal/resp"
	"github.com/rs/zerolog"
)

// conn is one client connection. Its command loop and reply loop run on
// separate goroutines; outCh is the only path either is allowed to write
// to the socket through, so replies and pub/sub messages never interleave
// mid-frame (teacher precedent: Client.send chan []byte drained by a
// single writePump in ws/server.go).
type conn struct {
	id     int64
	netc   net.Conn
	reader *resp.Reader
	outCh  chan []byte

	ctx *command.Context

	logger zerolog.Logger
	closed chan struct{}
}

func newConn(id int64, nc net.Conn, srv *Server) *conn {
	c := &conn{
		id:     id,
		netc:   nc,
		reader: resp.NewReader(nc),
		outCh:  make(chan []byte, 256),
		logger: srv.logger.With().Int64("conn_id", id).Logger(),
		closed: make(chan struct{}),
	}
	c.ctx = command.NewContext(srv.registry, srv.hub, resp.NewWriter(io.Discard), id)
	c.ctx.OOMGuard = srv.oomGuard.Exceeded
	return c
}

// commandLoop reads and executes commands until the connection closes or
// QUIT is received. Each command's reply is encoded into its own buffer
// so the writer used by command handlers never touches the socket
// directly; only replyLoop does.
func (c *conn) commandLoop(srv *Server) {
	defer logging.RecoverPanic(c.logger, "commandLoop")
	defer close(c.outCh)

	for {
		argv, err := c.reader.ReadCommand()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.logger.Debug().Err(err).Msg("connection read error")
			}
			return
		}
		if len(argv) == 0 {
			continue
		}

		if !srv.limiterFor(c.id).Allow() {
			c.writeFrame(func(w *resp.Writer) { w.Error("ERR command rate limit exceeded") })
			continue
		}

		name := string(argv[0])
		var buf bytes.Buffer
		c.ctx.Out = resp.NewWriter(&buf)
		command.Dispatch(c.ctx, argv)
		c.ctx.Out.Flush()

		reply := buf.Bytes()
		outcome := "ok"
		if bytes.HasPrefix(reply, []byte("-OOM")) {
			outcome = "oom"
			metrics.OOMRejectionsTotal.Inc()
		} else if len(reply) > 0 && reply[0] == '-' {
			outcome = "error"
		}
		metrics.CommandsTotal.WithLabelValues(name, outcome).Inc()

		if !c.send(reply) {
			return
		}
		if c.ctx.Quit {
			return
		}
	}
}

func (c *conn) writeFrame(fn func(w *resp.Writer)) {
	var buf bytes.Buffer
	w := resp.NewWriter(&buf)
	fn(w)
	w.Flush()
	c.send(buf.Bytes())
}

func (c *conn) send(b []byte) bool {
	select {
	case c.outCh <- b:
		return true
	case <-c.closed:
		return false
	}
}

// replyLoop is the connection's sole writer to the socket: it drains
// command replies from outCh and, once the connection has subscribed to
// anything, pub/sub deliveries from its subscriber mailbox, so the two
// traffic sources never race writing to the same net.Conn.
func (c *conn) replyLoop(srv *Server) {
	defer logging.RecoverPanic(c.logger, "replyLoop")
	defer c.netc.Close()
	defer close(c.closed)
	defer srv.removeConn(c.id)

	for {
		var mailbox <-chan *pubsub.Message
		if c.ctx.Sub != nil {
			mailbox = c.ctx.Sub.Mailbox()
		}
		select {
		case b, ok := <-c.outCh:
			if !ok {
				return
			}
			if _, err := c.netc.Write(b); err != nil {
				return
			}
		case m, ok := <-mailbox:
			if !ok {
				continue
			}
			if err := writePubSubMessage(c.netc, m); err != nil {
				return
			}
			metrics.PubSubDeliveredTotal.Inc()
		}
	}
}

func writePubSubMessage(w io.Writer, m *pubsub.Message) error {
	writer := resp.NewWriter(w)
	if m.Pattern == "" {
		writer.ArrayHeader(3)
		writer.BulkString([]byte("message"))
		writer.BulkString([]byte(m.Channel))
		writer.BulkString(m.Payload)
	} else {
		writer.ArrayHeader(4)
		writer.BulkString([]byte("pmessage"))
		writer.BulkString([]byte(m.Pattern))
		writer.BulkString([]byte(m.Channel))
		writer.BulkString(m.Payload)
	}
	return writer.Flush()
}

var connSeq int64

func nextConnID() int64 { return atomic.AddInt64(&connSeq, 1) }
