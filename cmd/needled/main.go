package main

import (
	"github.com/alecthomas/kong"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/cli/habits"
	"github.com/prompt2production/needled-mobile-sub000/internal/cli/injections"
	"github.com/prompt2production/needled-mobile-sub000/internal/cli/settings"
	"github.com/prompt2production/needled-mobile-sub000/internal/cli/system"
	"github.com/prompt2production/needled-mobile-sub000/internal/cli/weighins"
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
)

var CLI struct {
	cli.Globals
	Version kong.VersionFlag

	Init     system.InitCmd          `cmd:"" help:"Initialize local storage."`
	Migrate  system.MigrateCmd       `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd        `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd           `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Serve    system.ServeCmd         `cmd:"" help:"Serve the local database over the REST API."`
	Habit    habits.HabitCmd         `cmd:"" help:"Track daily habits and streaks."`
	Shot     injections.InjectionCmd `cmd:"" name:"injection" help:"Log injections and check when the next is due."`
	Weight   weighins.WeighInCmd     `cmd:"" name:"weigh-in" help:"Record and review weigh-ins."`
	Settings settings.SettingsCmd    `cmd:"" help:"Manage treatment settings."`
	Dose     settings.DoseCmd        `cmd:"" help:"Preview how a pen divides into doses."`
	Keyring  struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the API token for --backend."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored API token, masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored API token."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage API tokens in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("GLP-1 treatment companion: habits, injections and weigh-ins"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, cli.ConfigFile()),
		kong.Vars(cli.Vars()),
	)

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: cli.ExpandHome(CLI.ConfigDir),
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
