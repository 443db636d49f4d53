package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chorddht/internal/config"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/simulator"
)

// exercise issues one random put/get pair against a random node in the
// ring, demonstrating that cross-node resolve-and-forward actually
// lands on the right key owner.
func exercise(ctx context.Context, ring *simulator.Ring, rnd *rand.Rand) {
	nodes := ring.Nodes()
	if len(nodes) == 0 {
		return
	}
	i, target := rnd.Intn(len(nodes)), ""
	for addr := range nodes {
		if i == 0 {
			target = addr
			break
		}
		i--
	}

	key := fmt.Sprintf("key-%d", rnd.Int63())
	value := key
	n := nodes[target]

	putCtx, cancel := context.WithTimeout(ctx, time.Second)
	err := n.Put(putCtx, key, value)
	cancel()
	if err != nil {
		log.Printf("exercise put via %s failed: %v", target, err)
		return
	}

	getCtx, cancel := context.WithTimeout(ctx, time.Second)
	got, found, err := n.Get(getCtx, key)
	cancel()
	if err != nil || !found || got != value {
		log.Printf("exercise round trip via %s failed: found=%v err=%v", target, found, err)
	}
}

func main() {
	numNodes := flag.Int("nodes", 8, "number of in-process ring nodes to build")
	ringBits := flag.Int("bits", 24, "identifier space size in bits")
	succListSize := flag.Int("succlist", 3, "successor list size")
	seed := flag.Int64("seed", 1, "PRNG seed for reproducible key generation")
	reportEvery := flag.Duration("report", 2*time.Second, "interval between convergence reports")
	flag.Parse()

	log.SetFlags(log.LstdFlags)
	rnd := rand.New(rand.NewSource(*seed))

	sp, err := domain.NewSpace(*ringBits, *succListSize)
	if err != nil {
		log.Fatalf("invalid identifier space: %v", err)
	}

	maint := config.MaintenanceConfig{Interval: 200 * time.Millisecond}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lgr := &logger.NopLogger{}
	log.Printf("building %d-node ring over a %d-bit space", *numNodes, *ringBits)
	ring, err := simulator.Build(ctx, sp, *numNodes, maint, lgr)
	if err != nil {
		log.Fatalf("failed to build ring: %v", err)
	}

	ticker := time.NewTicker(*reportEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("shutting down")
			os.Exit(0)
		case <-ticker.C:
			for _, st := range ring.Snapshot() {
				log.Printf("%-16s id=%-10s succ=%-16s pred=%-16s fingers=%d/%d",
					st.Addr, st.ID, st.Successor, st.Predecessor, st.FingersSet, st.FingersTotal)
			}
			exercise(ctx, ring, rnd)
		}
	}
}
