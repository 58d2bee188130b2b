package main

import (
	"fmt"
	"os"

	"github.com/rohankatakam/slatewise/internal/config"
	"github.com/rohankatakam/slatewise/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "slatewise",
	Short: "Slatewise - weighted handicapping picks for a slate of games",
	Long: `Slatewise scores research evidence for each game on a slate, combines the
factor scores under a versioned weight framework and stores a pick with a
confidence band and a why-factor breakdown.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Bootstrap logger until the config says where logs go
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}

		logCfg := logging.ConfigFor(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
		if verbose {
			logCfg.Level = logging.DEBUG
			logCfg.AddSource = true
		}
		lg, err := logging.Initialize(logCfg)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize structured logging")
			return
		}
		logger = lg.Logrus()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .slatewise/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`Slatewise {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(frameworkCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(cacheCmd)
}
