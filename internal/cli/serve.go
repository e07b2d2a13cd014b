package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/moto/internal/api"
	"github.com/matzehuels/moto/pkg/dashboard"
	"github.com/matzehuels/moto/pkg/layout"
	"github.com/matzehuels/moto/pkg/session"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 10 * time.Minute
	sessionPrefix   = "moto:session:"
)

type serveOptions struct {
	addr    string
	seed    uint64
	open    bool
	noCache bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and a live card stream",
		Long: `Serve the moto HTTP API: account sign-up and sign-in, the dashboard,
conversion audits and the live card stream as JSON, PNG or SVG.

Sessions live in Redis when [redis] addr is set, otherwise in memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "deck seed (0 = random)")
	cmd.Flags().BoolVar(&opts.open, "open", false, "open the stream image in a browser")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the audit cache")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	cfg := c.config()
	logger := loggerFromContext(ctx)
	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	recs, err := c.openRecords(ctx)
	if err != nil {
		return err
	}
	defer recs.Close()

	store, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	consultant, err := c.newConsultant(ctx, store)
	if err != nil {
		return err
	}
	if !consultant.Configured() {
		logger.Warn("audits disabled: no API key configured")
	}

	sessions, err := c.serverSessions(ctx)
	if err != nil {
		return err
	}
	defer sessions.Close()

	manager := session.NewManager(recs, sessions,
		session.WithTTL(cfg.Server.SessionTTL.Duration),
		session.WithLogger(logger))
	ctl := c.newController(layout.Fixed(cfg.Geometry(defaultWidth)), opts.seed)

	srv := api.New(api.Options{
		Sessions:   manager,
		Dashboard:  dashboard.New(recs, logger),
		Consultant: consultant,
		Stream:     ctl,
		Logger:     logger,
	})
	httpSrv := srv.HTTPServer(addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := ctl.Start(gctx); err != nil {
		ln.Close()
		return err
	}

	g.Go(func() error {
		logger.Info("serving", "addr", ln.Addr().String())
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweepSessions(gctx, sessions, sweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		err := httpSrv.Shutdown(shutdownCtx)
		if cerr := ctl.Close(); err == nil {
			err = cerr
		}
		return err
	})

	if opts.open {
		url := "http://" + browserHost(ln.Addr()) + "/api/stream.svg"
		if err := openBrowser(url); err != nil {
			printDetail("Open %s in your browser", url)
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// serverSessions picks Redis when configured so every replica shares
// sessions.
func (c *CLI) serverSessions(ctx context.Context) (session.Store, error) {
	r := c.config().Redis
	if r.Addr == "" {
		return session.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis sessions: %w", err)
	}
	return session.NewRedisStore(client, sessionPrefix), nil
}

// sweepSessions drops expired sessions until ctx is done.
func sweepSessions(ctx context.Context, store session.Store, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := store.Cleanup(ctx); err != nil {
				loggerFromContext(ctx).Warn("session cleanup failed", "error", err)
			}
		}
	}
}

// browserHost turns a listen address into one a browser can reach.
func browserHost(a net.Addr) string {
	host, port, err := net.SplitHostPort(a.String())
	if err != nil {
		return a.String()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
