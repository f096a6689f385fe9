package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"marketpulse/internal/core"
	"marketpulse/internal/store"

	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache management command
func NewCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis result cache",
		Long:  `Inspect and clear cached article analyses in the configured SQLite or Redis backend.`,
	}

	cacheCmd.AddCommand(newCacheStatsCmd())
	cacheCmd.AddCommand(newCacheClearCmd())
	cacheCmd.AddCommand(newCachePruneCmd())

	return cacheCmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cache, err := openCache(cfg.Cache)
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			if cache == nil {
				fmt.Println("Result cache is disabled (cache.backend: none)")
				return nil
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get cache statistics: %w", err)
			}
			writeCacheStats(os.Stdout, stats)
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				fmt.Print("This will remove all cached analyses. Continue? [y/N]: ")
				var response string
				fmt.Scanln(&response)
				if response != "y" && response != "Y" && response != "yes" {
					fmt.Println("Cache clear cancelled")
					return nil
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cache, err := openCache(cfg.Cache)
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			if cache == nil {
				fmt.Println("Result cache is disabled (cache.backend: none)")
				return nil
			}
			defer cache.Close()

			if err := cache.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Println("Cache cleared successfully")
			return nil
		},
	}

	clearCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	return clearCmd
}

// expiringCache is implemented by backends that keep expired rows until
// they are pruned. Redis expires keys itself.
type expiringCache interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

func newCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove cached analyses older than cache.ttl",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cache, err := openCache(cfg.Cache)
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			if cache == nil {
				fmt.Println("Result cache is disabled (cache.backend: none)")
				return nil
			}
			defer cache.Close()

			removed, err := pruneCache(cmd.Context(), cache)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d expired entries\n", removed)
			return nil
		},
	}
}

func pruneCache(ctx context.Context, cache store.Cache) (int64, error) {
	ec, ok := cache.(expiringCache)
	if !ok {
		return 0, nil
	}
	removed, err := ec.CleanupExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return removed, nil
}

func writeCacheStats(w io.Writer, stats *core.CacheStats) {
	fmt.Fprintln(w, "Cache Statistics")
	fmt.Fprintln(w, "================")
	fmt.Fprintf(w, "Backend: %s\n", stats.Backend)
	fmt.Fprintf(w, "Entries: %d\n", stats.Entries)
	if !stats.OldestEntry.IsZero() {
		fmt.Fprintf(w, "Oldest:  %s\n", stats.OldestEntry.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Newest:  %s\n", stats.NewestEntry.Format("2006-01-02 15:04:05"))
	}
}
