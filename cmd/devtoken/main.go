// Command devtoken mints a bearer token for local testing.
//
//	go run ./cmd/devtoken -user alice -name Alice
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmynk/dinevote/internal/auth"
	"github.com/mmynk/dinevote/internal/config"
	"github.com/mmynk/dinevote/internal/models"
	"github.com/mmynk/dinevote/pkg/logging"
)

func main() {
	userID := flag.String("user", "", "user id to embed in the token (required)")
	name := flag.String("name", "", "display name")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to the configured TOKEN_TTL)")
	flag.Parse()

	logging.Setup("warn", "text")

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *ttl > 0 {
		cfg.Auth.TokenTTL = *ttl
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).
		Generate(models.Identity{UserID: *userID, DisplayName: *name})
	if err != nil {
		slog.Error("Failed to generate token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
