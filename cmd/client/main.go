package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"chorddht/internal/client"

	"github.com/peterh/liner"
)

func main() {
	addr := flag.String("addr", "localhost:9000", "address of a ring node to use as entry point")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout (e.g., 5s)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rpc := client.Connect(*timeout)
	currentAddr := *addr
	fmt.Printf("chord interactive client. Connected to %s\n", currentAddr)
	fmt.Println("Available commands: put/get/lookup/node/successors/predecessor/use/exit")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt(fmt.Sprintf("chord[%s]> ", currentAddr))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println("Aborted")
				continue
			}
			break
		}
		line.AppendHistory(input)

		args := strings.Fields(strings.TrimSpace(input))
		if len(args) == 0 {
			continue
		}
		cmd := args[0]

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)

		switch cmd {
		case "put":
			if len(args) < 3 {
				fmt.Println("Usage: put <key> <value>")
				cancel()
				continue
			}
			key, value := args[1], args[2]
			delay, err := client.Put(ctx, rpc, currentAddr, key, value)
			if err != nil {
				fmt.Printf("put failed (%v) | latency=%s\n", err, delay)
			} else {
				fmt.Printf("put succeeded (key=%s, value=%s) | latency=%s\n", key, value, delay)
			}

		case "get":
			if len(args) < 2 {
				fmt.Println("Usage: get <key>")
				cancel()
				continue
			}
			key := args[1]
			val, found, delay, err := client.Get(ctx, rpc, currentAddr, key)
			switch {
			case err != nil:
				fmt.Printf("get failed: %v | latency=%s\n", err, delay)
			case !found:
				fmt.Printf("key not found: %s | latency=%s\n", key, delay)
			default:
				fmt.Printf("get succeeded (key=%s, value=%s) | latency=%s\n", key, val, delay)
			}

		case "lookup":
			if len(args) < 2 {
				fmt.Println("Usage: lookup <id-hex>")
				cancel()
				continue
			}
			succ, hops, delay, err := client.Lookup(ctx, rpc, currentAddr, args[1])
			if err != nil {
				fmt.Printf("lookup failed: %v | latency=%s\n", err, delay)
			} else {
				fmt.Printf("lookup result: successor=%s (%s) hops=%d | latency=%s\n", succ.ID, succ.Addr, hops, delay)
			}

		case "node":
			self, delay, err := client.Identify(ctx, rpc, currentAddr)
			if err != nil {
				fmt.Printf("node failed: %v | latency=%s\n", err, delay)
			} else {
				fmt.Printf("self=%s (%s) | latency=%s\n", self.ID, self.Addr, delay)
			}

		case "successors":
			list, delay, err := client.Successors(ctx, rpc, currentAddr)
			if err != nil {
				fmt.Printf("successors failed: %v | latency=%s\n", err, delay)
			} else {
				fmt.Printf("successor list | latency=%s\n", delay)
				for i, s := range list {
					if s != nil {
						fmt.Printf("  [%d] %s (%s)\n", i, s.ID, s.Addr)
					}
				}
			}

		case "predecessor":
			pred, delay, err := client.Predecessor(ctx, rpc, currentAddr)
			if err != nil {
				fmt.Printf("predecessor failed: %v | latency=%s\n", err, delay)
			} else if pred == nil {
				fmt.Printf("no known predecessor | latency=%s\n", delay)
			} else {
				fmt.Printf("predecessor=%s (%s) | latency=%s\n", pred.ID, pred.Addr, delay)
			}

		case "use":
			if len(args) < 2 {
				fmt.Println("Usage: use <addr>")
				cancel()
				continue
			}
			currentAddr = args[1]
			fmt.Printf("switched connection to %s\n", currentAddr)

		case "exit", "quit":
			fmt.Println("Bye!")
			cancel()
			return

		default:
			fmt.Printf("unknown command: %s\n", cmd)
		}

		cancel()
	}
}
