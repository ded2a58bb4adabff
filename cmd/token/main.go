// Command token signs a bearer token for an account with the configured
// JWT secret and prints it. The API has no login endpoint, so this is how
// operators hand out credentials.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/490273789/llmops-api/internal/config"
	"github.com/490273789/llmops-api/internal/middleware"
)

func main() {
	account := flag.String("account", "", "account id (a new one is generated when empty)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	accountID := uuid.New()
	if *account != "" {
		accountID, err = uuid.Parse(*account)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid account id: %v\n", err)
			os.Exit(1)
		}
	}

	token, err := middleware.NewAuthenticator(cfg.Auth).Issue(accountID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "account: %s\n", accountID)
	fmt.Println(token)
}
