package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repopulse/repopulse/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local statistics cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		dir, err := cacheDir()
		if err != nil {
			return fmt.Errorf("resolve cache directory: %w", err)
		}
		store, err := cache.NewStore(dir, logger)
		if err != nil {
			return fmt.Errorf("open cache store: %w", err)
		}
		removed, err := store.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d cached record(s)\n", removed)
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache directory path",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cacheDir()
		if err != nil {
			return fmt.Errorf("resolve cache directory: %w", err)
		}
		fmt.Println(dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
}
