package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/Avflux/Av-sub001/internal/config"
	"github.com/Avflux/Av-sub001/internal/sqlite"
)

// createAPIKey issues a bearer token for the HTTP transport and prints it.
// Only the token's hash is stored.
func createAPIKey(cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-api-key", flag.ContinueOnError)
	fs.SetOutput(out)
	userID := fs.String("user", cfg.User.DefaultID, "user the key authenticates as")
	description := fs.String("description", "", "free-form note stored with the key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	return issueAPIKey(db, *userID, *description, out)
}

func issueAPIKey(db *sqlite.DB, userID, description string, out io.Writer) error {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlite.NewAPIKeyRepository(db).Create(ctx, token, userID, description); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, token)
	return err
}
