// check-endpoints: probes every RPC endpoint in the crowsale config in
// parallel and prints a latency/block summary table, then reads the presale
// figures through the winner.
//
// Run from the module root:
//
//	go run ./scripts/check-endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/engineerpawangupta/crowsale/internal/chain"
	"github.com/engineerpawangupta/crowsale/internal/config"
	"github.com/engineerpawangupta/crowsale/internal/contract"
	"github.com/engineerpawangupta/crowsale/internal/rpc"
)

const probeTimeout = 12 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("CROWSALE_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config:", err)
		os.Exit(1)
	}

	urls := cfg.RPCCandidates()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "no RPC endpoints configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	endpoints := rpc.Benchmark(ctx, urls)
	printTable(endpoints)

	best, err := rpc.Fastest(endpoints)
	if err != nil {
		fmt.Fprintln(os.Stderr, "no healthy endpoint:", err)
		os.Exit(1)
	}
	fmt.Println("\nbest:", best.URL)

	if cfg.SaleContract == "" {
		return
	}

	client := contract.NewClient(chain.NewClient(best.URL), cfg,
		"0x0000000000000000000000000000000000000000", nil)
	raised, err := client.TotalRaised(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reading presale:", shortErr(err))
		return
	}
	sold, _ := client.TotalSold(ctx)
	buyers, _ := client.BuyerCount(ctx)
	fmt.Printf("presale: raised=%s sold=%s buyers=%d\n", raised, sold, buyers)
}

func printTable(endpoints []rpc.Endpoint) {
	sort.Slice(endpoints, func(i, j int) bool {
		a, b := endpoints[i], endpoints[j]
		if a.Healthy != b.Healthy {
			return a.Healthy
		}
		return a.Latency < b.Latency
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ENDPOINT\tLATENCY\tBLOCK\tSTATUS")
	fmt.Fprintln(w, strings.Repeat("-", 40)+"\t"+
		strings.Repeat("-", 8)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 8))

	for _, e := range endpoints {
		if !e.Healthy {
			fmt.Fprintf(w, "%s\t—\t—\tdown\n", e.URL)
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%d\tok\n", e.URL, e.Latency.Milliseconds(), e.BlockNumber)
	}
	w.Flush()
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 60 {
		return s[:60] + "…"
	}
	return s
}
