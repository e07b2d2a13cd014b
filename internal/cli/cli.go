package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/moto/pkg/audit"
	"github.com/matzehuels/moto/pkg/buildinfo"
	"github.com/matzehuels/moto/pkg/cache"
	"github.com/matzehuels/moto/pkg/config"
	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/layout"
	"github.com/matzehuels/moto/pkg/records"
	"github.com/matzehuels/moto/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "moto"

	// defaultWidth is the stream width in px when no terminal is attached.
	defaultWidth = 1200
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "MOTO.AI card stream, dashboard and conversion audits",
		Long: `moto runs the MOTO.AI experience from the terminal: the scanning card
stream, the client dashboard, AI conversion audits and the JSON API that
serves them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/moto/config.toml)")

	root.AddCommand(c.streamCommand())
	root.AddCommand(c.appCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.auditCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.signUpCommand())
	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.whoamiCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.cfg = cfg
	return nil
}

// config returns the loaded configuration, or the defaults before
// PersistentPreRunE ran.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

// =============================================================================
// Service Factories
// =============================================================================

// openRecords opens the configured record store, falling back to a SQLite
// database in the data directory.
func (c *CLI) openRecords(ctx context.Context) (records.Store, error) {
	dsn := c.config().Store.DSN
	if dsn == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, fmt.Errorf("get data dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = "sqlite://" + filepath.Join(dir, appName+".db")
	}
	return records.Open(ctx, dsn)
}

// newCache returns Redis when configured, the file cache otherwise.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if r := c.config().Redis; r.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: r.Addr, Password: r.Password, DB: r.DB})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// keyer namespaces keys when the cache is a Redis shared with other apps.
func (c *CLI) keyer() cache.Keyer {
	if c.config().Redis.Addr != "" {
		return cache.NewScopedKeyer(nil, appName+":")
	}
	return cache.NewDefaultKeyer()
}

// newConsultant wires the audit consultant. Without an API key the
// consultant reports every audit as not configured.
func (c *CLI) newConsultant(ctx context.Context, store cache.Cache) (*audit.Consultant, error) {
	cfg := c.config()
	opts := cfg.Consultant()
	opts.Cache = store
	opts.Keyer = c.keyer()
	opts.Logger = loggerFromContext(ctx)

	var auditor audit.Auditor
	if cfg.Audit.APIKey != "" {
		a, err := audit.NewGeminiAuditor(ctx, cfg.Audit.APIKey, cfg.Audit.Model)
		if err != nil {
			return nil, err
		}
		auditor = a
	}
	return audit.NewConsultant(auditor, opts), nil
}

// cliSessions opens the on-disk session store and a manager over it.
func (c *CLI) cliSessions(recs records.Store) (*session.Manager, *session.CLIStore, error) {
	store, err := session.NewCLIStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	m := session.NewManager(recs, store.Store(),
		session.WithTTL(c.config().Server.SessionTTL.Duration),
		session.WithLogger(c.Logger))
	return m, store, nil
}

// newController builds a card stream controller. A zero seed picks a random
// one.
func (c *CLI) newController(prober layout.Prober, seed uint64) *controller.Controller {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return controller.New(c.config().Controller(), prober,
		controller.WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))),
		controller.WithLogger(c.Logger))
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/moto/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory using XDG standard
// (~/.local/share/moto/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
