package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

var (
	configPath string
	appConfig  *config.AppConfig
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pharmadoc",
		Short:         "Question answering over uploaded documents",
		Long:          `Index PDF, DOCX and text documents and answer questions using only their content.`,
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// stdout carries command output and the MCP stdio protocol
			logger_i.InitWithWriter(os.Stderr, cfg.Log)
			appConfig = cfg
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file (optional)")

	rootCmd.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newAskCmd(),
		newHistoryCmd(),
		newMCPCmd(),
	)
	return rootCmd
}
