// Package main resolves a market pair through the oracle resolver and
// prints the reading, its provenance, and the resulting multiplier.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"ticketd/internal/domain"
	"ticketd/internal/oracle"
)

func main() {
	oracleEndpoint := flag.String("oracle-endpoint", os.Getenv("ORACLE_ENDPOINT"), "Primary oracle endpoint")
	dexEndpoint := flag.String("dex-endpoint", os.Getenv("DEX_ENDPOINT"), "Exchange router fallback endpoint")
	pair := flag.String("pair", "XLM/USD", "Market pair to resolve")
	maxAge := flag.Duration("max-age", 24*time.Hour, "Staleness window for primary readings")
	reference := flag.String("reference", "1", "Reference price for the multiplier")
	timeout := flag.Duration("timeout", 30*time.Second, "Resolution timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[quote] ", log.LstdFlags)

	if *oracleEndpoint == "" && *dexEndpoint == "" {
		logger.Fatal("--oracle-endpoint or --dex-endpoint is required")
	}

	refPrice, err := domain.ParsePrice(*reference)
	if err != nil {
		logger.Fatalf("Invalid --reference: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resolver := oracle.NewResolver(oracle.WithLogger(logger))
	result := resolver.Resolve(ctx, oracle.Request{
		Pair:           *pair,
		OracleEndpoint: *oracleEndpoint,
		DexEndpoint:    *dexEndpoint,
		MaxAgeSeconds:  int64(maxAge.Seconds()),
	})
	if result == nil {
		logger.Fatalf("No source available for %s", *pair)
	}

	source := "exchange fallback"
	if result.FromPrimary {
		source = "primary oracle"
	}

	fmt.Printf("pair:       %s\n", *pair)
	fmt.Printf("price:      %s\n", domain.FormatPrice(result.Price))
	fmt.Printf("timestamp:  %s\n", time.Unix(result.Timestamp, 0).UTC().Format(time.RFC3339))
	fmt.Printf("source:     %s\n", source)
	fmt.Printf("multiplier: %d (reference %s)\n", oracle.Multiplier(result.Price, refPrice), *reference)
}
