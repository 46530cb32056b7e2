package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"assistant/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Portfolio chat assistant - retrieval-grounded answers over a knowledge base",
	Long: `Assistant serves a portfolio chat endpoint backed by an embedded
knowledge base. Answers are grounded in retrieved snippets; questions
outside the portfolio are refused.

Example usage:
  assistant ingest                       # Embed docs/ into the snapshot
  assistant query -q "chat architecture" # Inspect retrieval for a query
  assistant serve                        # Start the HTTP API`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./assistant.yaml)")
}

func GetConfig() *config.Config {
	return cfg
}
