// Package server owns client connection lifecycle: accepting TCP/Unix
// listeners, running each connection's command/reply goroutine pair, the
// active-expiration background loop, and the memory-pressure OOM guard.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adred-codev/kvredis/internal/command"
	"github.com/adred-codev/kvredis/internal/config"
	"github.com/adred-codev/kvredis/internal/logging"
	"github.com/adred-codev/kvredis/internal/metrics"
	"github.com/adred-codev/kvredis/internal/pubsub"
	"github.com/adred-codev/kvredis/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Server owns the listeners and every live connection.
type Server struct {
	cfg      config.Config
	logger   zerolog.Logger
	registry *store.Registry
	hub      *pubsub.Hub
	oomGuard *oomGuard

	listener     net.Listener
	unixListener net.Listener

	wg sync.WaitGroup

	connsMu sync.Mutex
	conns   map[int64]*conn

	limitersMu sync.Mutex
	limiters   map[int64]*rate.Limiter

	strikesMu sync.Mutex
	strikes   map[int64]int

	shuttingDown atomic.Bool
}

// New builds a Server. It does not start listening; call Start for that.
func New(cfg config.Config, logger zerolog.Logger) *Server {
	srv := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: store.NewRegistry(cfg.Databases),
		conns:    make(map[int64]*conn),
		limiters: make(map[int64]*rate.Limiter),
		strikes:  make(map[int64]int),
	}
	srv.hub = pubsub.NewHub(srv.onSlowSubscriber)
	srv.oomGuard = newOOMGuard(cfg.MaxMemoryBytes)
	srv.registry.SetExpireHook(srv.onExpired)
	return srv
}

// Start opens the TCP (and optional Unix-socket) listeners, then runs the
// accept loops, active expirer, and OOM sampler as detached goroutines
// (teacher precedent: Server.Start's `wg.Add(1); go s.runX()` per
// background task).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}
	s.listener = ln
	s.logger.Info().Str("addr", s.cfg.Addr()).Msg("listening")

	s.wg.Add(1)
	go s.acceptLoop(ln)

	if s.cfg.UnixSocket != "" {
		uln, err := net.Listen("unix", s.cfg.UnixSocket)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen unix: %w", err)
		}
		s.unixListener = uln
		s.logger.Info().Str("path", s.cfg.UnixSocket).Msg("listening on unix socket")
		s.wg.Add(1)
		go s.acceptLoop(uln)
	}

	s.wg.Add(1)
	go s.runActiveExpirer()

	s.wg.Add(1)
	go func() {
		defer logging.RecoverPanic(s.logger, "oomGuard")
		s.oomGuard.run(&s.wg, s.cfg.ActiveExpireTick)
	}()

	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.shuttingDown.Load() {
				return
			}
			s.logger.Error().Err(err).Msg("accept error")
			return
		}
		metrics.ConnectionsTotal.Inc()
		metrics.ConnectionsActive.Inc()
		go s.serve(nc)
	}
}

func (s *Server) serve(nc net.Conn) {
	id := nextConnID()
	c := newConn(id, nc, s)

	s.connsMu.Lock()
	s.conns[id] = c
	s.connsMu.Unlock()

	defer func() {
		metrics.ConnectionsActive.Dec()
		s.connsMu.Lock()
		delete(s.conns, id)
		s.connsMu.Unlock()
		s.limitersMu.Lock()
		delete(s.limiters, id)
		s.limitersMu.Unlock()
		s.strikesMu.Lock()
		delete(s.strikes, id)
		s.strikesMu.Unlock()
	}()

	go c.replyLoop(s)
	c.commandLoop(s)
}

func (s *Server) limiterFor(connID int64) *rate.Limiter {
	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()
	l, ok := s.limiters[connID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RateLimitPerSec), s.cfg.RateLimitBurst)
		s.limiters[connID] = l
	}
	return l
}

func (s *Server) removeConn(id int64) {
	s.connsMu.Lock()
	delete(s.conns, id)
	s.connsMu.Unlock()
}

// onSlowSubscriber is the pub/sub hub's drop callback: a connection that
// repeatedly fails to drain its mailbox within SubscriberStrikes attempts
// is forcibly disconnected, mirroring the teacher's 3-strike slow-client
// policy in internal/shared/broadcast.go.
func (s *Server) onSlowSubscriber(sub *pubsub.Subscriber, channel string) {
	metrics.PubSubDroppedTotal.Inc()
	id := sub.ID()

	s.strikesMu.Lock()
	s.strikes[id]++
	n := s.strikes[id]
	s.strikesMu.Unlock()

	if n < s.cfg.SubscriberStrikes {
		return
	}

	s.connsMu.Lock()
	c, ok := s.conns[id]
	s.connsMu.Unlock()
	if !ok {
		return
	}
	s.logger.Warn().Int64("conn_id", id).Str("channel", channel).Int("strikes", n).Msg("disconnecting slow subscriber")
	metrics.SlowSubscribersDisconnectedTotal.Inc()
	c.netc.Close()
}

func (s *Server) onExpired(shardID int, key string) {
	metrics.ExpiredKeysTotal.WithLabelValues("lazy").Inc()
}

func (s *Server) runActiveExpirer() {
	defer s.wg.Done()
	defer logging.RecoverPanic(s.logger, "activeExpirer")
	tick := s.cfg.ActiveExpireTick
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	// A rate limiter paces resampling instead of a plain ticker: a burst
	// lets a shard with a high expired ratio re-sample several times back
	// to back, but the sustained rate still caps at one pass per tick once
	// the burst is spent (teacher precedent: ResourceGuard's
	// golang.org/x/time/rate-paced periodic loops).
	limiter := rate.NewLimiter(rate.Every(tick), 4)
	ctx := newBackgroundContext()

	for {
		if s.shuttingDown.Load() {
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		busy := false
		for i := 0; i < s.registry.Count(); i++ {
			shard := s.registry.Shard(i)
			sampled, expired := shard.SampleExpired(s.cfg.ActiveExpireSample)
			if expired > 0 {
				metrics.ExpiredKeysTotal.WithLabelValues("active").Add(float64(expired))
			}
			if sampled > 0 && expired*4 > sampled {
				busy = true
			}
		}
		if !busy {
			// An idle pass waits out a full tick, so the limiter's burst
			// is left for passes that find many expired keys.
			time.Sleep(tick)
		}
	}
}

// Shutdown closes the listeners and every live connection.
func (s *Server) Shutdown() {
	s.shuttingDown.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
	if s.unixListener != nil {
		s.unixListener.Close()
	}
	s.connsMu.Lock()
	for _, c := range s.conns {
		c.netc.Close()
	}
	s.connsMu.Unlock()
	s.wg.Wait()
}

// Dispatch is exposed for tests that want to drive command.Dispatch
// directly against this server's registry/hub without a socket.
func (s *Server) Dispatch(ctx *command.Context, argv [][]byte) {
	command.Dispatch(ctx, argv)
}

// Addr returns the TCP listener's actual address, including the port
// the OS picked when the configured port was 0. Used by tests that
// need an ephemeral listen address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
