package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/router"
	"storefront/internal/session"
)

// serve runs the HTTP API until ctx is cancelled, then drains connections.
func (c *cli) serve(ctx context.Context) error {
	cfg := c.cfg
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr(), "backend", cfg.StoreBackend)

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.shutdown()

	// Seed development data (no-op if an account already exists).
	if cfg.IsDev() {
		if _, err := database.Seed(ctx, be.accounts); err != nil {
			return err
		}
	}

	// Valkey holds sessions and cached snapshots.
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	m := metrics.New()
	sessions := session.NewStore(valkeyClient, cfg.SecureCookies())
	svc := catalog.New(be.categories,
		catalog.WithCache(cache.NewSnapshotCache(valkeyClient, cfg.SnapshotTTL)),
		catalog.WithRecorder(be.events),
		catalog.WithObserver(m),
	)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer loginLimiter.Stop()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.New(router.Deps{
			Sessions:     sessions,
			Metrics:      m,
			LoginLimiter: loginLimiter,
			Auth:         handlers.NewAuth(sessions, be.users),
			Categories:   handlers.NewCategories(svc, be.events),
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		// Give active requests up to 30 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

// migrate brings the selected backend's schema up to date and drops
// every cached snapshot, since cached data may predate the new schema.
func (c *cli) migrate(ctx context.Context) error {
	be, err := openBackend(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer be.shutdown()

	valkeyClient, err := cache.ConnectValkey(ctx, c.cfg.ValkeyHost, c.cfg.ValkeyPort, c.cfg.ValkeyPassword, c.cfg.ValkeyDB)
	if err != nil {
		slog.Warn("valkey unavailable, cached snapshots not cleared", "error", err)
	} else {
		defer valkeyClient.Close()
		cache.NewSnapshotCache(valkeyClient, c.cfg.SnapshotTTL).InvalidateAll(ctx)
	}

	fmt.Fprintf(c.stdout, "%s schema is up to date\n", c.cfg.StoreBackend)
	return nil
}

// seed creates the default shop and owner account.
func (c *cli) seed(ctx context.Context) error {
	be, err := openBackend(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer be.shutdown()

	shop, err := database.Seed(ctx, be.accounts)
	if err != nil {
		return err
	}
	if shop == nil {
		fmt.Fprintln(c.stdout, "accounts already exist, nothing seeded")
		return nil
	}
	fmt.Fprintf(c.stdout, "created shop %s (%s) with owner %s\n", shop.Name, shop.ID, database.DefaultUserEmail)
	return nil
}

// errViolations makes check exit non-zero when the data is inconsistent.
var errViolations = errors.New("category invariants violated")

func newCheckCmd(c *cli) *cobra.Command {
	var shop string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report category invariant violations for a shop",
		RunE: func(cmd *cobra.Command, args []string) error {
			shopID, err := uuid.Parse(shop)
			if err != nil {
				return fmt.Errorf("invalid --shop %q: %w", shop, err)
			}
			return c.check(cmd.Context(), shopID)
		},
	}
	cmd.Flags().StringVar(&shop, "shop", "", "id of the shop to check")
	cmd.MarkFlagRequired("shop")
	return cmd
}

// check validates the stored categories of one shop.
func (c *cli) check(ctx context.Context, shopID uuid.UUID) error {
	be, err := openBackend(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer be.shutdown()

	violations, err := catalog.New(be.categories).Check(ctx, shopID)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		fmt.Fprintf(c.stdout, "shop %s: no violations\n", shopID)
		return nil
	}
	for _, v := range violations {
		fmt.Fprintf(c.stdout, "shop %s: %s\n", shopID, v)
	}
	return fmt.Errorf("%w: %d found", errViolations, len(violations))
}
