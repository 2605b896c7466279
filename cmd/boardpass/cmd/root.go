package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Configuration of the running command.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "boardpass",
	Short: "Resolve QR flight tickets and render boarding passes",
	Long: `boardpass reads the flight code carried by a ticket QR code, looks the
ticket up and renders a printable boarding pass as a PDF.

This tool provides:
- Ticket lookup by flight code (memory fixtures, HTTP API, MySQL, Redis)
- QR decoding from photos and screenshots
- Boarding pass rendering in the rounded and classic layouts
- An HTTP API with live websocket scanning

Examples:
  boardpass resolve LH401
  boardpass scan ticket.jpg --render
  boardpass render LH401 --profile classic
  boardpass serve --port 8080`,
	Version:       versionString(),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		globalConfig = cfg
		slog.SetDefault(newLogger(cmd, cfg))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitCode(err))
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.SetVersionTemplate("boardpass {{.Version}}\n")

	// Global flags that apply to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/boardpass, /etc/boardpass)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("backend", config.DefaultConfig().Lookup.Backend,
		"ticket lookup backend (memory, http, mysql, redis)")
	rootCmd.PersistentFlags().String("fixtures", "", "ticket fixtures file for the memory backend")
	rootCmd.PersistentFlags().String("api-url", "", "base URL of the flights API for the http backend")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("lookup.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("lookup.fixtures_file", rootCmd.PersistentFlags().Lookup("fixtures"))
	_ = viper.BindPFlag("lookup.http.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
}

// loadConfig reads the config file, the environment and the bound flags.
func loadConfig() (*config.Config, error) {
	configLoader = config.NewLoader()
	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, nil
}

// GetConfig returns the configuration of the running command.
func GetConfig() *config.Config {
	if globalConfig == nil {
		defaults := config.DefaultConfig()
		return &defaults
	}
	return globalConfig
}

// newLogger writes JSON logs to stderr so stdout stays parseable.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))
}

func versionString() string {
	v, commit, date := version.Info()
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}
