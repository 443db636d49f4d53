package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log"
	"math/big"
	"time"

	"chorddht/internal/client"
)

func randomHexBits(bits int) string {
	bytes := (bits + 7) / 8
	b := make([]byte, bytes)
	rand.Read(b)
	rem := bits % 8
	if rem != 0 {
		mask := byte(1<<rem - 1)
		b[0] &= mask
	}
	return hex.EncodeToString(b)
}

func pickRandom(nodes []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(nodes))))
	return nodes[n.Int64()]
}

// fetchPeers asks addr for its view of the ring (self, predecessor,
// successor list) and returns every address it reports, to seed or
// refresh the worker's target pool.
func fetchPeers(ctx context.Context, addr string, timeout time.Duration) ([]string, error) {
	rpc := client.Connect(timeout)

	var nodes []string
	if self, _, err := client.Identify(ctx, rpc, addr); err == nil {
		nodes = append(nodes, self.Addr)
	} else {
		return nil, err
	}
	if pred, _, err := client.Predecessor(ctx, rpc, addr); err == nil && pred != nil {
		nodes = append(nodes, pred.Addr)
	}
	if succs, _, err := client.Successors(ctx, rpc, addr); err == nil {
		for _, s := range succs {
			if s != nil {
				nodes = append(nodes, s.Addr)
			}
		}
	}
	return nodes, nil
}

func main() {
	bootstrapAddr := flag.String("bootstrap", "127.0.0.1:9000", "bootstrap node address")
	bits := flag.Int("bits", 128, "ID length in bits")
	rate := flag.Float64("rate", 1.0, "lookup requests per second")
	timeout := flag.Duration("timeout", 2*time.Second, "per-request timeout")
	refresh := flag.Duration("refresh", 30*time.Second, "peer list refresh interval")
	flag.Parse()

	ctx := context.Background()
	nodes, err := fetchPeers(ctx, *bootstrapAddr, *timeout)
	if err != nil || len(nodes) == 0 {
		log.Fatalf("failed to fetch peers from bootstrap %s: %v", *bootstrapAddr, err)
	}
	log.Printf("bootstrap succeeded, discovered %d nodes", len(nodes))

	rpc := client.Connect(*timeout)
	interval := time.Duration(float64(time.Second) / *rate)
	ticker := time.NewTicker(*refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n := pickRandom(nodes)
			if newNodes, err := fetchPeers(ctx, n, *timeout); err == nil && len(newNodes) > 0 {
				nodes = newNodes
				log.Printf("refreshed node list, now have %d nodes", len(nodes))
			}
		default:
			id := randomHexBits(*bits)
			n := pickRandom(nodes)

			lookupCtx, cancel := context.WithTimeout(ctx, *timeout)
			succ, hops, delay, err := client.Lookup(lookupCtx, rpc, n, id)
			cancel()
			if err != nil {
				log.Printf("[lookup] id=%s via %s ERROR: %v latency=%s", id, n, err, delay)
			} else {
				log.Printf("[lookup] id=%s via %s -> %s hops=%d latency=%s", id, n, succ.Addr, hops, delay)
			}

			time.Sleep(interval)
		}
	}
}
