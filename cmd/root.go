package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/intreg/internal/auth"
	"github.com/zjrosen/intreg/internal/cachemanager"
	"github.com/zjrosen/intreg/internal/config"
	"github.com/zjrosen/intreg/internal/controller"
	"github.com/zjrosen/intreg/internal/infrastructure/sqlite"
	"github.com/zjrosen/intreg/internal/log"
	"github.com/zjrosen/intreg/internal/presentation"
	"github.com/zjrosen/intreg/internal/registry/application"
	"github.com/zjrosen/intreg/internal/registry/domain"
	"github.com/zjrosen/intreg/internal/tracing"
	"github.com/zjrosen/intreg/internal/watcher"
)

const localConfigPath = ".intreg/config.yaml"

var version = "dev"

// cli carries per-invocation state shared by every subcommand.
type cli struct {
	v       *viper.Viper
	cfgFile string
	debug   bool
	cfg     config.Config

	logCleanup func()
}

// NewRootCmd builds the intreg command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "intreg",
		Short: "Integration registry for module adapters",
		Long: `intreg maps (module, adapter name) pairs to adapter addresses.

Only the configured owner may add, edit or remove bindings, and a module
must be recognized by the controller before bindings can be added or
edited under it. Lookups are open to everyone. All output is JSON.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initConfig,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logCleanup != nil {
				c.logCleanup()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "",
		"config file (default: .intreg/config.yaml, then ~/.config/intreg/config.yaml)")
	root.PersistentFlags().String("db", "", "path to the registry database")
	root.PersistentFlags().String("caller", "", "identity (address) performing mutations")
	root.PersistentFlags().BoolVarP(&c.debug, "debug", "d", false, "enable debug logging")

	_ = c.v.BindPFlag("db_path", root.PersistentFlags().Lookup("db"))
	_ = c.v.BindPFlag("caller", root.PersistentFlags().Lookup("caller"))

	root.AddCommand(
		newAddCmd(c),
		newEditCmd(c),
		newRemoveCmd(c),
		newBatchAddCmd(c),
		newBatchEditCmd(c),
		newGetCmd(c),
		newValidCmd(c),
		newHashCmd(),
		newHistoryCmd(c),
		newInitCmd(c),
		newTransferOwnershipCmd(c),
		newRenounceOwnershipCmd(c),
	)
	return root
}

func (c *cli) initConfig(_ *cobra.Command, _ []string) error {
	defaults := config.Defaults()
	c.v.SetDefault("db_path", defaults.DBPath)
	c.v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	c.v.SetDefault("cache.ttl", defaults.Cache.TTL)
	c.v.SetDefault("log.path", defaults.Log.Path)
	c.v.SetDefault("log.level", defaults.Log.Level)
	c.v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	c.v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	c.v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	c.v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	c.v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	c.v.SetEnvPrefix("INTREG")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	// Unmarshal only sees env vars for known keys. These have no default or flag.
	for _, key := range []string{"owner", "controller.modules", "controller.whitelist_file", "controller.watch"} {
		if err := c.v.BindEnv(key); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		// Config lookup order:
		// 1. .intreg/config.yaml (current directory)
		// 2. ~/.config/intreg/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			c.v.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			c.v.AddConfigPath(filepath.Join(home, ".config", "intreg"))
			c.v.SetConfigName("config")
			c.v.SetConfigType("yaml")
		}
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
		// No config file anywhere: run on defaults, flags and environment
	}

	if err := c.v.Unmarshal(&c.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	if c.debug || os.Getenv("INTREG_DEBUG") != "" {
		cleanup, err := log.Init(c.cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		log.SetMinLevel(log.ParseLevel(c.cfg.Log.Level))
		c.logCleanup = cleanup
	}

	log.Debug(log.CatConfig, "config loaded", "file", c.v.ConfigFileUsed(), "db", c.cfg.DBPath)
	return nil
}

// configPath is where configuration changes are written back.
func (c *cli) configPath() string {
	if used := c.v.ConfigFileUsed(); used != "" {
		return used
	}
	if c.cfgFile != "" {
		return c.cfgFile
	}
	return localConfigPath
}

// caller resolves the mutating identity from --caller or the config.
func (c *cli) caller() (domain.Address, error) {
	if c.cfg.Caller == "" {
		return domain.ZeroAddress, fmt.Errorf("no caller: pass --caller or set caller in the config")
	}
	addr, err := domain.ParseAddress(c.cfg.Caller)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("caller: %w", err)
	}
	return addr, nil
}

// registry is an opened registry service together with what it owns.
type registry struct {
	svc    *application.Service
	db     *sqlite.DB
	policy *auth.OwnerPolicy

	closers []func() error
}

// Close releases the service and everything opened for it.
func (r *registry) Close() error {
	r.svc.Close()
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// openRegistry wires the service from configuration.
func (c *cli) openRegistry() (*registry, error) {
	if err := config.Validate(c.cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	r := &registry{}
	fail := func(err error) (*registry, error) {
		for i := len(r.closers) - 1; i >= 0; i-- {
			_ = r.closers[i]()
		}
		return nil, err
	}

	owner, err := c.cfg.OwnerAddress()
	if err != nil {
		return nil, err
	}
	if owner.IsZero() {
		log.Warn(log.CatAuth, "no owner configured, every mutation will be rejected")
	}
	r.policy = auth.NewOwnerPolicy(owner)

	ctrl, err := c.openController(r)
	if err != nil {
		return fail(err)
	}

	provider, err := tracing.NewProvider(c.cfg.Tracing)
	if err != nil {
		return fail(fmt.Errorf("initializing tracing: %w", err))
	}
	r.closers = append(r.closers, func() error { return provider.Shutdown(context.Background()) })

	r.db, err = sqlite.NewDB(c.cfg.DBPath)
	if err != nil {
		return fail(fmt.Errorf("opening registry database: %w", err))
	}
	r.closers = append(r.closers, r.db.Close)

	opts := []application.Option{application.WithTracer(provider.Tracer())}
	if c.cfg.Cache.Enabled {
		ttl := c.cfg.Cache.TTL
		cache := cachemanager.NewInMemoryCacheManager[string, domain.Address]("lookups", ttl, 2*ttl)
		opts = append(opts, application.WithCache(cache, ttl))
	}

	r.svc = application.NewService(r.db.BindingRepository(), ctrl, r.policy, opts...)
	return r, nil
}

func (c *cli) openController(r *registry) (domain.Controller, error) {
	ctrlCfg := c.cfg.Controller
	if ctrlCfg.WhitelistFile == "" {
		modules, err := c.cfg.ModuleAddresses()
		if err != nil {
			return nil, err
		}
		return controller.NewStatic(modules...), nil
	}

	wl, err := controller.LoadFileWhitelist(ctrlCfg.WhitelistFile)
	if err != nil {
		return nil, fmt.Errorf("loading module whitelist: %w", err)
	}
	r.closers = append(r.closers, wl.Close)
	if ctrlCfg.Watch {
		if err := wl.Watch(watcher.DefaultConfig(ctrlCfg.WhitelistFile)); err != nil {
			return nil, fmt.Errorf("watching module whitelist: %w", err)
		}
	}
	return wl, nil
}

// withRegistry opens the registry for the duration of fn.
func (c *cli) withRegistry(fn func(r *registry) error) (err error) {
	r, err := c.openRegistry()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(r)
}

// Execute runs the root command. Failures are reported as JSON on stderr.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		_ = presentation.NewFormatter(os.Stderr).Format(presentation.FromError(err))
		return err
	}
	return nil
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
