package agegraph

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const healthCheckTries = 3

type pinger interface {
	Ping(ctx context.Context) error
}

// connPinger checks the server on its own connection, outside the pool, so a
// pool with every connection checked out still reports a reachable server.
type connPinger struct {
	config *pgx.ConnConfig
}

func (p connPinger) Ping(ctx context.Context) error {
	conn, err := pgx.ConnectConfig(ctx, p.config)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	return conn.Ping(ctx)
}

// healthMonitor pings the server on an interval. A failed ping is retried with
// exponential backoff before the pool is reported unhealthy.
type healthMonitor struct {
	pinger      pinger
	interval    time.Duration
	timeout     time.Duration
	log         *zap.Logger
	onUnhealthy func(error)
	newBackOff  func() backoff.BackOff

	healthy atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func newHealthMonitor(p pinger, interval, timeout time.Duration, log *zap.Logger, onUnhealthy func(error)) *healthMonitor {
	m := &healthMonitor{
		pinger:      p,
		interval:    interval,
		timeout:     timeout,
		log:         log.Named("health"),
		onUnhealthy: onUnhealthy,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
		done: make(chan struct{}),
	}
	m.healthy.Store(true)
	return m
}

func (m *healthMonitor) start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.run(ctx)
}

func (m *healthMonitor) stop() {
	m.once.Do(func() {
		if m.cancel == nil {
			return
		}
		m.cancel()
		<-m.done
	})
}

// Healthy reports the result of the most recent check.
func (m *healthMonitor) Healthy() bool {
	return m.healthy.Load()
}

func (m *healthMonitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// check pings with retries and records the outcome. The callback fires once
// per transition to unhealthy.
func (m *healthMonitor) check(ctx context.Context) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, m.ping(ctx)
	},
		backoff.WithBackOff(m.newBackOff()),
		backoff.WithMaxTries(healthCheckTries),
		backoff.WithMaxElapsedTime(m.interval),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.log.Warn("health check failed, retrying", zap.Duration("retry_in", next), zap.Error(err))
		}),
	)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		err = wrapError("health check", "", err)
		if m.healthy.Swap(false) {
			m.log.Error("connection pool unhealthy", zap.Error(err))
			if m.onUnhealthy != nil {
				m.onUnhealthy(err)
			}
		}
		return err
	}

	if !m.healthy.Swap(true) {
		m.log.Info("connection pool recovered")
	}
	return nil
}

func (m *healthMonitor) ping(ctx context.Context) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return m.pinger.Ping(ctx)
}
