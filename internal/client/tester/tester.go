package tester

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand"
	"sync"
	"time"

	"chorddht/internal/bootstrap"
	"chorddht/internal/client"
	"chorddht/internal/client/tester/writer"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/transport"
)

// Tester drives periodic waves of random lookups against a running ring
// and records latency/outcome for each one.
type Tester struct {
	cfg     *Config
	logger  logger.Logger
	writer  writer.Writer
	boot    bootstrap.Bootstrap
	space   domain.Space
	rpc     *transport.Client
	started time.Time
}

// New creates a new Tester instance.
func New(cfg *Config, lgr logger.Logger, w writer.Writer, boot bootstrap.Bootstrap, space domain.Space) *Tester {
	return &Tester{
		cfg:    cfg,
		logger: lgr,
		writer: w,
		space:  space,
		boot:   boot,
		rpc:    client.Connect(cfg.Query.Timeout),
	}
}

// Run starts the tester for the configured duration or until the context is cancelled.
func (t *Tester) Run(ctx context.Context) error {
	t.logger.Info("tester started", logger.F("duration", t.cfg.Simulation.Duration))
	t.started = time.Now()
	endTime := t.started.Add(t.cfg.Simulation.Duration)
	interval := time.Duration(float64(time.Second) / t.cfg.Query.Rate)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		now := time.Now()
		if now.After(endTime) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := t.runQueryWave(ctx); err != nil {
				t.logger.Error("query wave failed", logger.F("err", err.Error()))
			}
		}
	}

	t.logger.Info("tester finished")
	return nil
}

// runQueryWave executes a wave of parallel lookups against random nodes
// discovered through the configured bootstrap mechanism.
func (t *Tester) runQueryWave(ctx context.Context) error {
	nodes, err := t.boot.Discover(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap discovery failed: %w", err)
	}
	if len(nodes) == 0 {
		t.logger.Warn("no nodes discovered")
		return nil
	}

	p := randomInt(t.cfg.Query.Parallelism.MinWorkers, t.cfg.Query.Parallelism.MaxWorkers)
	t.logger.Info("starting query wave",
		logger.F("parallel", p),
		logger.F("nodes", len(nodes)),
	)

	var wg sync.WaitGroup
	wg.Add(p)

	for i := 0; i < p; i++ {
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			default:
				t.doLookup(ctx, nodes)
			}
		}()
	}

	wg.Wait()
	return nil
}

// doLookup performs a single lookup operation against a random node.
func (t *Tester) doLookup(ctx context.Context, nodes []string) {
	node := nodes[mrand.Intn(len(nodes))]
	key, err := t.generateRandomID()
	if err != nil {
		t.logger.Warn("failed to generate random id", logger.F("err", err.Error()))
		return
	}

	queryCtx, cancel := context.WithTimeout(ctx, t.cfg.Query.Timeout)
	defer cancel()

	_, _, delay, err := client.Lookup(queryCtx, t.rpc, node, key)
	var result string
	switch {
	case err == nil:
		result = "SUCCESS"
	case errors.Is(err, transport.ErrUnreachable):
		t.logger.Debug("node unavailable (skipping row)",
			logger.F("node", node),
			logger.F("id", key),
			logger.F("err", err.Error()),
		)
		return
	case errors.Is(err, transport.ErrTimeout):
		result = "TIMEOUT"
	default:
		result = fmt.Sprintf("ERROR_%v", err)
	}

	t.logger.Info("lookup result",
		logger.F("node", node),
		logger.F("key", key),
		logger.F("result", result),
		logger.F("delay_ms", delay.Milliseconds()),
	)

	if err := t.writer.WriteRow(node, result, delay); err != nil {
		t.logger.Warn("failed to write result row", logger.F("err", err.Error()))
	}
}

// randomInt returns a random integer in [min, max].
func randomInt(min, max int) int {
	if min >= max {
		return min
	}
	return mrand.Intn(max-min+1) + min
}

// generateRandomID produces a random hex-encoded identifier sized to the
// configured ring's byte length.
func (t *Tester) generateRandomID() (string, error) {
	buf := make([]byte, t.space.ByteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random input: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
