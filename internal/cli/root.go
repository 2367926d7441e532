// Package cli implements the ebicsctl command line client
package cli

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-ebics/internal/config"
	"github.com/sirosfoundation/go-ebics/internal/logging"
)

// Version is reported by --version
var Version = "dev"

// app carries the state shared by all subcommands of one invocation
type app struct {
	configPath string

	env    *config.Environment
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// NewRootCommand builds the ebicsctl command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "ebicsctl",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "EBICS H004 banking client",
		Long: `ebicsctl runs EBICS orders against a bank server: subscriber
initialisation (INI), statement and protocol downloads (STA, PTK), SEPA
credit transfers (CCT) and suspension of the subscriber (SPR).

Process settings are read from EBICS_CONFIG, EBICS_LOG_LEVEL and
EBICS_ENVIRONMENT.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file (overrides EBICS_CONFIG)")

	rootCmd.AddCommand(
		newLetterCmd(a),
		newINICmd(a),
		newSPRCmd(a),
		newPTKCmd(a),
		newSTACmd(a),
		newCCTCmd(a),
		newHistoryCmd(a),
	)

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	env, err := config.NewEnvironment()
	if err != nil {
		log.Printf("failed to load environment: %v", err)
		return err
	}
	a.env = env
	a.logger = logging.New(env.LogLevel, env.Environment)
	a.out = cmd.OutOrStdout()

	path := a.configPath
	if path == "" {
		path = env.ConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		a.logger.Error("failed to load configuration",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return err
	}
	a.cfg = cfg

	a.logger.Debug("configuration loaded",
		slog.String("path", path),
		slog.String("environment", env.Environment),
		slog.String("bank_url", cfg.Bank.URL),
		slog.String("host_id", cfg.Bank.HostID),
		slog.String("partner_id", cfg.User.PartnerID),
		slog.String("user_id", cfg.User.UserID),
		slog.String("storage", cfg.Storage.Type))
	return nil
}

// Execute runs ebicsctl and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
