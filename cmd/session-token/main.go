package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/factura-eu/api/internal/auth"
	"github.com/factura-eu/api/internal/config"
)

// session-token prints a session token for calling the API without the
// Shopify admin, e.g. with curl against a local server.
func main() {
	shop := flag.String("shop", "", "Shop domain, e.g. my-shop.myshopify.com")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	if *shop == "" {
		fmt.Fprintln(os.Stderr, "usage: session-token -shop my-shop.myshopify.com [-ttl 1h]")
		os.Exit(2)
	}

	config.LoadDotEnv()
	cfg := config.LoadDev()
	if cfg.UsesDevSecret() {
		slog.Warn("SHOPIFY_API_SECRET is not set; the token is only accepted by a server started with -dev")
	}

	token, err := auth.NewSessionVerifier(cfg.Shopify.APIKey, cfg.Shopify.APISecret).Issue(*shop, *ttl)
	if err != nil {
		slog.Error("failed to issue session token", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Authorization: Bearer %s\n", token)
}
