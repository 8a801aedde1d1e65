package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/cache"
	"github.com/cantai/cifra/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached documents and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch c.Config.Cache.Backend {
			case config.CacheNone, config.CacheMemory:
				printInfo("The %s cache keeps nothing between runs", c.Config.Cache.Backend)
				return nil
			case config.CacheRedis:
				rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
					URL:    c.Config.Cache.RedisURL,
					Prefix: c.redisPrefix(),
				})
				if err != nil {
					return err
				}
				defer rc.Close()
				n, err := rc.Clear(ctx)
				if err != nil {
					return err
				}
				printSuccess("Cleared %d cached entries", n)
				printDetail("Prefix: %s", c.redisPrefix())
				return nil
			}

			dir, err := c.Config.CachePath()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			n, err := fc.Clear()
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.Config.CachePath()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
