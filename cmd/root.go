package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxtally application
var rootCmd = &cobra.Command{
	Use:   "inboxtally",
	Short: "Classifies recent Gmail messages with a local LLM and charts the result",
	Long: `inboxtally reads the subject and sender of your most recent Gmail messages,
asks a local Ollama model to sort each one into Work, School, Shopping or
Uncategorized, caches every answer in Redis and prints a tally chart.

It can run as:
  - A one-shot classifier (default)
  - A periodic classifier exposing Prometheus metrics (watch)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// Persistent flags shared by all commands
var (
	configPath string
	debugMode  bool
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxtally version %s\n" .Version}}`)

	// If no subcommand is provided, run the classify command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "classify")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file. Can also use INBOXTALLY_CONFIG env var.")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
}
