package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbweave/orbweave/internal/server"
	"github.com/orbweave/orbweave/pkg/cache"
	"github.com/orbweave/orbweave/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the arrangement HTTP API",
		Long: `Serve exposes the arrangement pipeline over HTTP: a synchronous
/api/v1/arrange endpoint and an asynchronous job API with progress
polling.

When a redis address is configured, arrangement results are cached in
redis so multiple instances share one cache. Otherwise the file cache
is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			backend, err := c.serverCache(cmd.Context(), noCache)
			if err != nil {
				return fmt.Errorf("init cache: %w", err)
			}

			runner := pipeline.NewRunner(backend, nil, c.Logger)
			defer runner.Close()

			return server.New(runner, c.Logger).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the arrangement cache")

	return cmd
}

// serverCache picks the serve command's cache backend: redis when
// configured, the file cache otherwise.
func (c *CLI) serverCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.Config.Redis.Addr != "" {
		c.Logger.Debug("using redis cache", "addr", c.Config.Redis.Addr)
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.Redis.Addr,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
	}
	return c.newCacheBackend(false)
}
