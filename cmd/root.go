package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/logging"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgDir     string
	cfg        *config.Config
	verbose    bool
	assumeYes  bool
	logLevel   string
	logger     = zap.NewNop()
	skipConfig = map[string]bool{"help": true, "completion": true, "__complete": true}
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "tokenlaunch",
	Short: "Deploy ERC-20 tokens from your terminal",
	Long: `tokenlaunch - connect a wallet, pick a network and launch a token.

  Describe the token with flags or a YAML/JSON file, preview the gas cost,
  confirm, and tokenlaunch compiles, signs and deploys it through your
  local wallet. Every deployment is recorded under the config directory
  and, when configured, sent to your launchpad backend.

Run "tokenlaunch console" for an interactive session.`,
	Version:       ui.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipConfig[cmd.Name()] {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		logger, err = logging.New(level, verbose, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger.Debug("config loaded", zap.String("dir", cfg.Dir()), zap.String("command", cmd.CommandPath()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// shownError marks an error the session already reported on screen.
type shownError struct{ error }

func (e shownError) Unwrap() error { return e.error }

func shown(err error) error {
	if err == nil {
		return nil
	}
	return shownError{err}
}

// Execute runs the root command. Ctrl-C cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var se shownError
		if !errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $"+config.EnvConfigDir+" or ~/.tokenlaunch)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve every wallet and confirmation prompt")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		connectCmd,
		disconnectCmd,
		statusCmd,
		networkCmd,
		estimateCmd,
		deployCmd,
		walletCmd,
		historyCmd,
		inspectCmd,
		rpcCmd,
		configCmd,
		consoleCmd,
	)
}
