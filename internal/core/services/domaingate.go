package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DomainGate enforces a minimum interval between requests to the same host.
// It is shared by all ingestion jobs and is independent of worker limits.
type DomainGate struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewDomainGate creates a gate. interval <= 0 disables throttling.
func NewDomainGate(interval time.Duration) *DomainGate {
	return &DomainGate{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host may proceed or ctx is done.
func (g *DomainGate) Wait(ctx context.Context, host string) error {
	if g == nil || g.interval <= 0 {
		return ctx.Err()
	}
	return g.limiter(host).Wait(ctx)
}

func (g *DomainGate) limiter(host string) *rate.Limiter {
	host = strings.ToLower(host)

	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(g.interval), 1)
		g.limiters[host] = l
	}
	return l
}
