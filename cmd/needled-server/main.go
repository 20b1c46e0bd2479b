package main

import (
	"github.com/alecthomas/kong"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/cli/system"
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
)

var CLI struct {
	cli.Globals
	Version kong.VersionFlag
	LogJSON bool `help:"Write logs as JSON lines." env:"NEEDLED_LOG_JSON"`

	Serve   system.ServeCmd   `cmd:"" help:"Serve the REST API." default:"1"`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Init    system.InitCmd    `cmd:"" help:"Initialize the database."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName+"-server"),
		kong.Description("Reference REST backend for the needled client"),
		kong.UsageOnError(),
		kong.Vars(cli.Vars()),
	)

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: cli.ExpandHome(CLI.ConfigDir),
		FileName:  constants.AppName + "-server.log",
		Console:   true,
		JSON:      CLI.LogJSON,
	}); err != nil {
		apperrors.Fatal(err)
	}
	defer logger.Close()

	appCtx, err := cli.NewContext(CLI.Globals)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer appCtx.Close()

	if err := ctx.Run(appCtx); err != nil {
		appCtx.Close()
		apperrors.Fatal(err)
	}
}
