package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chargecast/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chargecast",
	Short: "Explainable annual medical charge estimation",
	Long: "Chargecast estimates annual medical charges from demographic and\n" +
		"lifestyle features and explains every estimate with per-feature\n" +
		"contributions, out-of-range warnings, and a plain-language summary.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
