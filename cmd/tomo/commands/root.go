package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomoai/tomo/pkg/cli"
)

var (
	logLevel   string
	configPath string

	globalConfig  *cli.Config
	configLoadErr error
)

var rootCmd = &cobra.Command{
	Use:   "tomo",
	Short: "Terminal client for realtime companion calls",
	Long: `tomo - a terminal client for realtime companion calls.

Streams your microphone to a remote conversational agent, plays its
synthesized speech back, and follows the conversation transcript and
the agent's emotional state live in the terminal.

Configuration is stored in ~/.tomo/config.yaml:

  tomo config set server_url ws://localhost:8000/ws/chat
  tomo config set api_url http://localhost:8000
  tomo config set character_id <id>
  tomo call`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.tomo/config.yaml)")
}

func initConfig() {
	cfg, err := cli.LoadConfigWithPath(configPath)
	if err != nil {
		// Deferred: commands that need config report it via getConfig.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

func initLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := cli.LoadConfigWithPath(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}
