package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/keyring"
)

func apiBackend(ctx *cli.Context) (string, error) {
	if !cli.IsAPIURL(ctx.Globals.Backend) {
		return "", fmt.Errorf("--backend must be an http(s) API URL, got %q", ctx.Globals.Backend)
	}
	return ctx.Globals.Backend, nil
}

// KeyringSetCmd stores the API session token for the backend in the OS keyring.
type KeyringSetCmd struct {
	Token string `arg:"" help:"Session token issued by the API."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	backend, err := apiBackend(ctx)
	if err != nil {
		return err
	}
	if err := keyring.SetToken(backend, strings.TrimSpace(cmd.Token)); err != nil {
		return err
	}
	ctx.Printf("✓ Token stored in OS keyring for %s\n", backend)
	return nil
}

// KeyringGetCmd shows the stored token, masked.
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	backend, err := apiBackend(ctx)
	if err != nil {
		return err
	}
	token, err := keyring.GetToken(backend)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no token found in keyring for %s", backend)
		}
		return err
	}
	ctx.Printf("%s\n", maskToken(token))
	return nil
}

// KeyringDeleteCmd removes the token, signing the CLI out of the backend.
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	backend, err := apiBackend(ctx)
	if err != nil {
		return err
	}
	if err := keyring.DeleteToken(backend); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no token found in keyring for %s", backend)
		}
		return err
	}
	ctx.Printf("✓ Token deleted from OS keyring\n")
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring.
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Printf("❌ OS keyring is not available on this system\n")
		return errors.New("keyring unavailable")
	}
	ctx.Printf("✓ OS keyring is available\n")

	if !cli.IsAPIURL(ctx.Globals.Backend) {
		return nil
	}
	if _, err := keyring.GetToken(ctx.Globals.Backend); err == nil {
		ctx.Printf("✓ Token is stored for %s\n", ctx.Globals.Backend)
	} else if errors.Is(err, keyring.ErrNotFound) {
		ctx.Printf("ℹ No token stored for %s\n", ctx.Globals.Backend)
	}
	return nil
}

// maskToken keeps the first four characters.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + strings.Repeat("*", len(token)-4)
}
