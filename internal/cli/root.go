package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/prompt2production/needled-mobile-sub000/internal/api"
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/keyring"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/service"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage/postgres"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage/sqlite"
	"github.com/prompt2production/needled-mobile-sub000/internal/tracker"
)

// Globals are the flags shared by every command. Each can also be set with
// an environment variable or in the JSON config file.
type Globals struct {
	Backend   string `help:"SQLite path, PostgreSQL URL, or http(s) API base URL. PostgreSQL URLs must NOT embed a password; use .pgpass or PGPASSWORD." env:"NEEDLED_BACKEND" default:"${default_backend}"`
	User      string `help:"User id." env:"NEEDLED_USER" default:"${default_user}"`
	Token     string `help:"API bearer token for http(s) backends. Falls back to the OS keyring." env:"NEEDLED_TOKEN"`
	Timezone  string `name:"default-timezone" help:"IANA timezone that decides the local day when no settings are stored." env:"NEEDLED_TIMEZONE" default:"${default_timezone}"`
	ConfigDir string `help:"Directory for logs and the config file." env:"NEEDLED_CONFIG_DIR" default:"${config_dir}"`
	Debug     bool   `help:"Log debug output to stderr." env:"NEEDLED_DEBUG"`

	Medication  string   `name:"default-medication" help:"Medication (OZEMPIC, WEGOVY, MOUNJARO, ZEPBOUND) used when no settings are stored." env:"NEEDLED_MEDICATION" default:"${default_medication}"`
	Dosage      *float64 `name:"default-dosage" help:"Prescribed dose in mg used when no settings are stored." env:"NEEDLED_DOSAGE"`
	PenStrength *float64 `name:"default-pen-strength" help:"Microdose pen strength in mg." env:"NEEDLED_PEN_STRENGTH"`
	DoseAmount  *float64 `name:"default-dose-amount" help:"Microdose dose amount in mg." env:"NEEDLED_DOSE_AMOUNT"`
	TrackGolden bool     `name:"default-track-golden" help:"Track golden doses." env:"NEEDLED_TRACK_GOLDEN"`
}

// ExpandHome resolves a leading ~ against the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// IsAPIURL reports whether backend names a remote API rather than a database.
func IsAPIURL(backend string) bool {
	u, err := url.Parse(backend)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DefaultSettings builds user settings from the flags.
func (g Globals) DefaultSettings() (models.Settings, error) {
	med, err := models.ParseMedication(g.Medication)
	if err != nil {
		return models.Settings{}, err
	}
	settings := models.Settings{
		UserID:          g.User,
		Timezone:        g.Timezone,
		Medication:      med,
		DosageMg:        g.Dosage,
		TrackGoldenDose: g.TrackGolden,
	}
	if g.PenStrength != nil || g.DoseAmount != nil {
		if g.PenStrength == nil || g.DoseAmount == nil {
			return models.Settings{}, errors.New("--default-pen-strength and --default-dose-amount must be set together")
		}
		settings.Microdose = &models.Microdose{PenStrengthMg: *g.PenStrength, DoseAmountMg: *g.DoseAmount}
	}
	return settings, nil
}

// Context is handed to every command's Run method.
type Context struct {
	Globals Globals
	Out     io.Writer

	// Store is nil for API backends.
	Store   storage.Provider
	Service *service.Service

	client api.Client
	loaded bool
}

// NewContext selects the backend named by g.Backend. Nothing is opened yet.
func NewContext(g Globals) (*Context, error) {
	c := &Context{Globals: g, Out: os.Stdout}
	switch {
	case IsAPIURL(g.Backend):
		token := g.Token
		if token == "" {
			stored, err := keyring.GetToken(g.Backend)
			if err != nil && !errors.Is(err, keyring.ErrNotFound) {
				logger.Warn("Keyring lookup failed", "error", err)
			}
			token = stored
		}
		client, err := api.NewHTTPClient(g.Backend, api.WithToken(token))
		if err != nil {
			return nil, err
		}
		c.client = client
	case postgres.IsConnString(g.Backend):
		if err := postgres.ValidateConnString(g.Backend); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded passwords are not allowed; use .pgpass or PGPASSWORD instead")
			}
			return nil, err
		}
		c.Store = postgres.New(g.Backend)
	default:
		c.Store = sqlite.NewStore(ExpandHome(g.Backend))
	}
	return c, nil
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// Load opens the database for local backends and wires the in-process
// service. It is a no-op for API backends and on repeated calls.
func (c *Context) Load() error {
	if c.loaded {
		return nil
	}
	if c.Store != nil {
		if err := c.Store.Load(); err != nil {
			return err
		}
		if err := c.wireService(); err != nil {
			return err
		}
	}
	c.loaded = true
	return nil
}

// UseStore wires the service over an already initialized store.
func (c *Context) UseStore() error {
	if c.Store == nil {
		return fmt.Errorf("backend %q is not a database", c.Globals.Backend)
	}
	if err := c.wireService(); err != nil {
		return err
	}
	c.loaded = true
	return nil
}

func (c *Context) wireService() error {
	defaults, err := c.Globals.DefaultSettings()
	if err != nil {
		return err
	}
	c.Service = service.New(c.Store, service.WithDefaults(defaults))
	c.client = c.Service
	return nil
}

func (c *Context) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}

// Settings returns the stored settings for local backends and the flag
// defaults for API backends.
func (c *Context) Settings(ctx context.Context) (models.Settings, error) {
	if err := c.Load(); err != nil {
		return models.Settings{}, err
	}
	if c.Service != nil {
		return c.Service.Settings(ctx, c.Globals.User)
	}
	return c.Globals.DefaultSettings()
}

// Tracker builds the client core over the selected backend.
func (c *Context) Tracker(ctx context.Context) (*tracker.Tracker, error) {
	settings, err := c.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if c.client == nil {
		return nil, errors.New("no backend configured")
	}
	return tracker.New(c.client, settings)
}

// Vars are the kong interpolation variables used by the Globals defaults.
func Vars() map[string]string {
	return map[string]string{
		"version":            constants.Version,
		"default_backend":    constants.DefaultBackend,
		"default_user":       constants.DefaultUserID,
		"default_timezone":   constants.DefaultTimezone,
		"default_medication": constants.DefaultMedication,
		"config_dir":         constants.DefaultConfigDir,
	}
}

// ConfigFile is the JSON file kong reads flag defaults from.
func ConfigFile() string {
	return filepath.Join(ExpandHome(constants.DefaultConfigDir), "config.json")
}
