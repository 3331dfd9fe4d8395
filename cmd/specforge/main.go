package main

import (
	"context"
	"os"

	"github.com/jingkaihe/specforge/pkg/logger"
	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitGateFailed = 2
)

// exitCode is set by commands and returned by the process once telemetry
// has been flushed.
var exitCode = exitOK

func setExitCode(code int) {
	if code > exitCode {
		exitCode = code
	}
}

var shutdownTracing = func(context.Context) error { return nil }

func init() {
	viper.SetEnvPrefix("SPECFORGE")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.specforge")
	viper.AddConfigPath(".specforge")
	viper.AddConfigPath(".")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("keep_removed", true)

	// the config file is optional
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "specforge",
	Short: "Author, lint and compile structured markdown specs",
	Long: `specforge validates PRDs, tech specs and SKILL.md files against section and
quality rules, and compiles the user stories of a PRD into a prd.json work
queue that keeps execution state across recompiles.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Configure(logger.Options{
			Level:  viper.GetString("log_level"),
			Format: viper.GetString("log_format"),
		}); err != nil {
			return err
		}
		presenter.SetQuiet(viper.GetBool("quiet"))
		ctx := logger.ForCommand(cmd.Context(), cmd.Name())
		cmd.SetContext(ctx)

		shutdown, err := initTracing(ctx)
		if err != nil {
			logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
			return nil
		}
		shutdownTracing = shutdown
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print errors")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(
		withTracing(compileCmd),
		withTracing(lintCmd),
		withTracing(evidenceCmd),
		templateCmd,
		skillCmd,
		schemaCmd,
		versionCmd,
	)
}

func main() {
	ctx := context.Background()

	err := rootCmd.ExecuteContext(ctx)
	if serr := shutdownTracing(ctx); serr != nil {
		logger.G(ctx).WithError(serr).Warn("failed to flush traces")
	}
	if err != nil {
		presenter.Error(err, "")
		setExitCode(exitFailure)
	}
	os.Exit(exitCode)
}
