// Command token mints a caller token for local use against the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/owlchat/koins/internal/auth"
	"github.com/owlchat/koins/internal/config"
)

func main() {
	subject := flag.String("subject", "", "token subject (hex account id or any service name)")
	ttl := flag.Duration("ttl", 0, "override TOKEN_TTL")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "-subject is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *ttl > 0 {
		cfg.TokenTTL = *ttl
	}

	token, expires, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AppName, cfg.TokenTTL).Issue(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("account: %s\n", auth.AccountFor(*subject))
	fmt.Printf("expires: %s\n", expires.UTC().Format(time.RFC3339))
	fmt.Printf("token:   %s\n", token)
}
