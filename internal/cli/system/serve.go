package system

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
	"github.com/prompt2production/needled-mobile-sub000/internal/server"
)

// ServeCmd exposes the local database over the REST API.
type ServeCmd struct {
	Addr  string `help:"Listen address." env:"NEEDLED_LISTEN_ADDR" default:":8080"`
	Token string `name:"auth-token" help:"Bearer token clients must present. Empty disables auth." env:"NEEDLED_SERVER_TOKEN"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if ctx.Store == nil {
		return fmt.Errorf("serve needs a database backend, got %q", ctx.Globals.Backend)
	}
	if err := ctx.Load(); err != nil {
		return err
	}
	defer ctx.Close()

	if c.Token == "" {
		logger.Warn("Serving without authentication", "addr", c.Addr)
	}
	addr := c.Addr
	if addr == "" {
		addr = constants.DefaultListenAddr
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(sigCtx, addr, server.NewRouter(ctx.Service, server.Config{Token: c.Token}))
}
