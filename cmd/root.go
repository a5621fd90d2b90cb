package cmd

import (
	"fmt"
	"log"
	"os"

	"settlement-engine/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

// config and logger are loaded once for every subcommand.
var (
	config *utils.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "settlement",
	Short: "Settlement engine - commission ledger for the marketplace",
	Long: `Settlement engine computes platform commission and IVA on completed
bookings, keeps the per-booking commission ledger and reports operator
earnings in CLP.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := utils.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		config = cfg

		l, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
		if err != nil {
			log.Printf("Failed to init logger: %v. Using standard log.", err)
			l, _ = zap.NewProduction()
		}
		logger = l.With(zap.String("command", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
