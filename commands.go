package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/urfave/cli/v2"

	"github.com/satheeshds/repairbook/config"
	"github.com/satheeshds/repairbook/db"
	_ "github.com/satheeshds/repairbook/docs"
	"github.com/satheeshds/repairbook/drafts"
	"github.com/satheeshds/repairbook/handlers"
	"github.com/satheeshds/repairbook/identity"
	"github.com/satheeshds/repairbook/invoicing"
	"github.com/satheeshds/repairbook/ledger"
	"github.com/satheeshds/repairbook/profile"
	"github.com/satheeshds/repairbook/render"
	"github.com/satheeshds/repairbook/report"
	"github.com/satheeshds/repairbook/stats"
)

// services is everything a command needs, wired to the configured backend.
type services struct {
	ledger   *ledger.Ledger
	profiles profile.Store
	invoices *invoicing.Service
	stats    *stats.Aggregator
	close    func()
}

func openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	log := slog.Default()
	s := &services{close: func() {}}

	var store ledger.Store
	switch cfg.Storage.Backend {
	case config.BackendFile:
		store = ledger.NewFileStore(cfg.Storage.DataDir, log)
		s.profiles = profile.NewFileStore(cfg.Storage.DataDir, log)
		log.Info("using file storage", "data_dir", cfg.Storage.DataDir)
	case config.BackendPostgres:
		pool, err := db.Open(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		store = db.NewLedgerStore(pool, log)
		s.profiles = db.NewProfileStore(pool, log)
		s.close = pool.Close
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}

	s.ledger = ledger.New(store, ledger.SystemClock{}, log)
	s.invoices = invoicing.NewService(s.ledger, s.profiles, cfg.Storage.OutputDir, log)
	s.stats = stats.NewAggregator(s.ledger, log)
	return s, nil
}

var tokenFlag = &cli.StringFlag{
	Name:    "token",
	Usage:   "session token selecting the user's ledger (empty uses the anonymous bucket)",
	EnvVars: []string{"REPAIRBOOK_TOKEN"},
}

// withServices runs fn with services opened for the command's context and
// the user resolved from --token.
func withServices(cfg *config.Config, fn func(c *cli.Context, s *services, userID string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := openServices(c.Context, cfg)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(c, s, identity.Resolve(c.String("token")))
	}
}

func serveCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Action: withServices(cfg, func(c *cli.Context, s *services, _ string) error {
			api := &handlers.API{
				Ledger:   s.ledger,
				Profiles: s.profiles,
				Drafts:   drafts.NewStore(cfg.Drafts.TTL),
				Invoices: s.invoices,
				Stats:    s.stats,
				Log:      slog.Default(),
			}

			// Router setup
			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.RealIP)
			r.Use(middleware.Logger)
			r.Use(middleware.Recoverer)

			r.Get("/healthz", handlers.Healthz)
			// API routes with basic auth
			r.Route("/api/v1", func(r chi.Router) {
				r.Use(handlers.BasicAuth(cfg.Auth.User, cfg.Auth.Pass))
				api.Routes(r)
			})
			// Swagger UI
			r.Get("/swagger/*", httpSwagger.WrapHandler)

			srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
			errCh := make(chan error, 1)
			go func() {
				slog.Info("server starting", "address", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-quit:
			}

			slog.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("shutdown: %w", err)
			}
			slog.Info("server stopped", "discarded_drafts", api.Drafts.Len())
			return nil
		}),
	}
}

func statsCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print today's and all-time statistics as JSON",
		Flags: []cli.Flag{tokenFlag},
		Action: withServices(cfg, func(c *cli.Context, s *services, userID string) error {
			d, err := s.stats.Dashboard(c.Context, userID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}),
	}
}

func reportCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "print per-day totals",
		Flags: []cli.Flag{tokenFlag},
		Action: withServices(cfg, func(c *cli.Context, s *services, userID string) error {
			days, err := s.ledger.Days(c.Context, userID)
			if err != nil {
				return err
			}
			rows, err := report.Daily(c.Context, days)
			if err != nil {
				return err
			}
			p := s.profiles.Load(c.Context, userID)
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tINVOICES\tITEMS\tLABOR\tDISCOUNT\tSALES")
			for _, row := range rows {
				day := row.Day
				if !row.Readable {
					day += " (unreadable)"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n", day, row.Invoices, row.Items,
					render.FormatMoney(p.Currency, row.Labor),
					render.FormatMoney(p.Currency, row.Discount),
					render.FormatMoney(p.Currency, row.Sales))
			}
			return tw.Flush()
		}),
	}
}

func clearTodayCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "clear-today",
		Usage: "delete today's invoices (the counter is not rolled back)",
		Flags: []cli.Flag{tokenFlag},
		Action: withServices(cfg, func(c *cli.Context, s *services, userID string) error {
			removed, err := s.ledger.ClearToday(c.Context, userID)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintln(c.App.Writer, "today's invoices cleared")
			} else {
				fmt.Fprintln(c.App.Writer, "no invoices recorded today")
			}
			return nil
		}),
	}
}

func nextNumberCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "next-number",
		Usage: "print the number the next invoice will get",
		Flags: []cli.Flag{tokenFlag},
		Action: withServices(cfg, func(c *cli.Context, s *services, userID string) error {
			n, err := s.ledger.NextInvoiceNumber(c.Context, userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, n)
			return nil
		}),
	}
}
