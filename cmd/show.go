// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/repopulse/repopulse/internal/cache"
	"github.com/repopulse/repopulse/internal/gateway"
	"github.com/repopulse/repopulse/internal/render"
	"github.com/repopulse/repopulse/internal/usecase"
)

// Defaults when no repository argument is given.
const (
	defaultOwner = "repopulse"
	defaultRepo  = "repopulse"

	// sweepMaxAge bounds how long any record may linger in the cache
	// directory, regardless of the 30-minute freshness window.
	sweepMaxAge = 24 * time.Hour
)

var showCmd = &cobra.Command{
	Use:   "show [owner/repo]",
	Short: "Fetch and display repository statistics",
	Long: `Fetches the star, fork, watcher, and open-issue counts for a repository
and displays them. A fresh result is cached for 30 minutes; within that
window repeated invocations never touch the network. If both the cache
and the network fail, fixed fallback values are shown instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		owner, repo := defaultOwner, defaultRepo
		if len(args) == 1 {
			var err error
			owner, repo, err = splitRepoArg(args[0])
			if err != nil {
				return err
			}
		}

		dir, err := cacheDir()
		if err != nil {
			return fmt.Errorf("resolve cache directory: %w", err)
		}
		store, err := cache.NewStore(dir, logger)
		if err != nil {
			return fmt.Errorf("open cache store: %w", err)
		}

		// Housekeeping runs once, before anything else touches the store.
		store.Sweep(time.Now(), sweepMaxAge)

		fetcher, err := gateway.NewGitHubGateway(logger)
		if err != nil {
			return fmt.Errorf("create GitHub gateway: %w", err)
		}

		// Animate only when stdout is an interactive terminal, decided
		// exactly once before rendering.
		renderer := render.NewTerminal(os.Stdout, render.Interactive(os.Stdout))
		provider := usecase.NewProvider(owner, repo, store, fetcher, renderer, logger)

		refresh, _ := cmd.Flags().GetBool("refresh")
		var source usecase.Source
		if refresh {
			source = provider.Refresh(ctx)
		} else {
			source = provider.Load(ctx)
		}
		logger.Debug("render complete", "repo", owner+"/"+repo, "source", source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("refresh", false, "Bypass the cache and fetch fresh statistics")
}

// splitRepoArg parses an "owner/repo" argument.
func splitRepoArg(arg string) (string, string, error) {
	parts := strings.Split(arg, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/repo", arg)
	}
	return parts[0], parts[1], nil
}
