package server

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adred-codev/kvredis/internal/metrics"
	"github.com/shirou/gopsutil/v3/process"
)

// oomGuard periodically samples this process's resident memory and
// rejects write commands once it crosses limitBytes, the way the
// teacher's ResourceGuard samples CPU/memory to shed load before the
// OS OOM-killer intervenes. limitBytes of 0 disables the guard.
type oomGuard struct {
	limitBytes int64
	proc       *process.Process
	exceeded   atomic.Bool
}

func newOOMGuard(limitBytes int64) *oomGuard {
	g := &oomGuard{limitBytes: limitBytes}
	if limitBytes <= 0 {
		return g
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		g.proc = p
	}
	return g
}

// Exceeded reports whether the last sample was over limitBytes. It is
// wired into command.Context.OOMGuard and consulted before every command
// flagged IsWrite, including ones that free memory such as DEL.
func (g *oomGuard) Exceeded() bool {
	if g.limitBytes <= 0 || g.proc == nil {
		return false
	}
	return g.exceeded.Load()
}

func (g *oomGuard) run(wg *sync.WaitGroup, tick time.Duration) {
	defer wg.Done()
	if g.limitBytes <= 0 || g.proc == nil {
		return
	}
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick * 5)
	defer ticker.Stop()
	for range ticker.C {
		info, err := g.proc.MemoryInfo()
		if err != nil {
			continue
		}
		metrics.MemoryUsedBytes.Set(float64(info.RSS))
		g.exceeded.Store(int64(info.RSS) > g.limitBytes)
	}
}

// newBackgroundContext returns a context.Context that is never
// cancelled, for rate.Limiter.Wait calls in long-lived server loops
// that have no per-request deadline of their own.
func newBackgroundContext() context.Context {
	return context.Background()
}
