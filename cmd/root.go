// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "repopulse",
	Short: "Show live GitHub repository statistics in your terminal.",
	Long: `repopulse fetches the public statistics of a GitHub repository
(stars, forks, watchers, open issues) and displays them with an animated
count-up. Results are cached locally for 30 minutes, and hardcoded
fallback values are shown if the network is unavailable.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// newLogger builds the shared logger. Diagnostics log at debug level, so
// they only appear when --verbose lowers the threshold.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// cacheDir returns this application's directory under the user cache root.
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "repopulse"), nil
}
