// Command linebridge runs the LINE ↔ Gemini relay.
//
//	linebridge serve            # HTTP server (webhook, records API, probes)
//	linebridge migrate          # create/upgrade chat_records
//	linebridge sign -f body.json  # print the X-Line-Signature for a body
//
// Configuration comes from the environment; a .env file is loaded first when
// present.
package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/manachat72/line-ai-chatbot/internal/config"
	"github.com/manachat72/line-ai-chatbot/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version string

// @title        LINE AI relay bridge
// @version      1.0
// @description  Receives LINE webhook deliveries, generates replies with Gemini and answers through the LINE reply API.
// @BasePath     /
func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("linebridge failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "linebridge",
		Short:         "Relay LINE messages to Gemini and reply with the result",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment (missing file is ignored)")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newSignCmd())
	return root
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	observability.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	return cfg, nil
}
