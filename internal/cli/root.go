package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/centraunit/scopetree/internal/config"
	"github.com/centraunit/scopetree/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootOptions holds global flags and the state prepared before every command.
type RootOptions struct {
	ConfigFile string
	Verbose    bool

	viper  *viper.Viper
	config *config.Config
	logger *slog.Logger
	closer io.Closer
}

// Config returns the loaded configuration. It is nil before the root
// command's pre-run.
func (o *RootOptions) Config() *config.Config {
	return o.config
}

// Logger returns the configured logger, or a discarding one before pre-run.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return logging.Nop()
	}
	return o.logger
}

// NewRootCommand creates the root command for the scopetree CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "scopetree",
		Short: "Inspect scope trees and simulate lifecycle-bound work",
		Long: `scopetree builds hierarchical scope trees from a screen manifest and
simulates lifecycle streams to show when bound producers are cancelled.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.closer != nil {
				return opts.closer.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default is $HOME/.config/scopetree/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().String("log-format", "", "log format (human|text|json)")
	_ = opts.viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))

	cmd.AddCommand(NewTreeCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func (o *RootOptions) init(cmd *cobra.Command) error {
	v := o.viper
	config.SetDefaults(v)

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(config.ConfigDir())
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config: %w", err)
			}
		}
	}
	if o.Verbose {
		v.Set("logging.level", logging.LevelDebug)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	o.config = cfg

	if cfg.Logging.Dir != "" {
		logger, closer, err := logging.NewFile(cfg.Logging.Dir, cfg.Logging.Level)
		if err != nil {
			return err
		}
		o.logger, o.closer = logger, closer
	} else {
		o.logger = logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	}
	o.logger.Debug("config loaded", "file", v.ConfigFileUsed(), "table", cfg.Lifecycle.Table)
	return nil
}
