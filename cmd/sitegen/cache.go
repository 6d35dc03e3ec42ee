package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitegen/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the generation cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, closeFn, err := openCache()
		if err != nil {
			return err
		}
		defer closeFn()
		return writeJSON(cmd.OutOrStdout(), c.Stats())
	},
}

var purgeIntents bool

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop cached image searches, and optionally cached intents",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, prefix, closeFn, err := openCache()
		if err != nil {
			return err
		}
		defer closeFn()
		return purge(cmd, c, prefix, purgeIntents)
	},
}

// openCache connects to the configured cache. A purge against an unreachable
// Redis would only clear process memory, so that is an error here.
func openCache() (*cache.RedisCache, string, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, "", nil, err
	}
	c, err := cache.Open(&cache.CacheConfig{
		RedisURL:  cfg.Cache.RedisURL,
		KeyPrefix: cfg.Cache.KeyPrefix,
	})
	if err != nil {
		_ = c.Close()
		return nil, "", nil, err
	}
	return c, cfg.Cache.KeyPrefix, func() {
		_ = c.Close()
		_ = log.Sync()
	}, nil
}

func purge(cmd *cobra.Command, c *cache.RedisCache, prefix string, intents bool) error {
	patterns := []string{cache.ImagesPattern(prefix)}
	if intents {
		patterns = append(patterns, cache.IntentsPattern(prefix))
	}
	for _, p := range patterns {
		if err := c.DeletePattern(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", p)
	}
	return nil
}

func init() {
	cachePurgeCmd.Flags().BoolVar(&purgeIntents, "intents", false, "also drop cached prompt intents")
	cacheCmd.AddCommand(cacheStatsCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
