// Command attribution corre el pipeline de atribución o una de sus etapas.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/lead-attribution/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "attribution",
	Short:         "Lead attribution, scoring and budget reallocation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd, serveCmd, classifyCmd, projectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig aborta la corrida si falta configuración o credenciales.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	logger := newLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("configuration error", slog.String("err", err.Error()))
		return cfg, logger, err
	}
	logger.Info("configuration loaded", slog.String("config", cfg.String()))
	return cfg, logger, nil
}

func newLogger(lvl slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
