// Command shopctl is the operator CLI of the shop: it seeds sample data and
// inspects orders through every fetch strategy.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ghuser/ghshop/pkg/app"
	"github.com/ghuser/ghshop/pkg/config"
	"github.com/ghuser/ghshop/pkg/database"
	"github.com/ghuser/ghshop/pkg/logger"
	appsvcs "github.com/ghuser/ghshop/services/shop/application/services"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// servicesFunc opens the database and wires the shop services. The returned
// close func releases the pool.
type servicesFunc func(ctx context.Context) (*appsvcs.Services, func(), error)

func openServices(ctx context.Context) (*appsvcs.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithWriter(cfg, os.Stderr)
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.Options{
		MaxConns:  cfg.DatabaseMaxConns,
		SlowQuery: cfg.DatabaseSlowQuery,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	svcs := appsvcs.New(&app.Application{Config: cfg, Db: pool, Logger: log})
	return svcs, func() { _ = pool.Close() }, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(openServices)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := 1
		var ee *exitErr
		if errors.As(err, &ee) {
			code = ee.code
		}
		stop()
		os.Exit(code) //nolint:gocritic
	}
}

func newRootCmd(open servicesFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Operate the shop database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSeedCmd(open), newOrdersCmd(open))
	return root
}

func newSeedCmd(open servicesFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the sample members, books and orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svcs, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			created, err := svcs.Seeder.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d member(s)\n", created)
			return nil
		},
	}
}

// searchFlags holds the filters shared by the orders subcommands.
type searchFlags struct {
	status string
	member string
	offset int
	limit  int
}

func (f *searchFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.status, "status", "", "ORDERED or CANCELLED")
	fs.StringVar(&f.member, "member", "", "Member name substring (case-insensitive)")
	fs.IntVar(&f.offset, "offset", 0, "Orders to skip")
	fs.IntVar(&f.limit, "limit", 0, "Maximum orders (0 means the capped full result)")
}

func (f *searchFlags) search() (repositories.OrderSearch, error) {
	search := repositories.OrderSearch{MemberName: f.member, Offset: f.offset, Limit: f.limit}
	if f.status != "" {
		status, err := models.ParseOrderStatus(f.status)
		if err != nil {
			return search, &exitErr{code: 2, msg: err.Error()}
		}
		search.Status = status
	}
	if err := search.Validate(); err != nil {
		return search, &exitErr{code: 2, msg: err.Error()}
	}
	return search, nil
}

func newOrdersCmd(open servicesFunc) *cobra.Command {
	orders := &cobra.Command{
		Use:   "orders",
		Short: "Query orders",
	}

	var listFlags searchFlags
	var strategy string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print matching orders as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			search, err := listFlags.search()
			if err != nil {
				return err
			}
			fs, err := repositories.ParseFetchStrategy(strategy)
			if err != nil {
				return &exitErr{code: 2, msg: err.Error()}
			}
			svcs, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			result, err := svcs.Orders.Search(cmd.Context(), search, fs)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	listFlags.register(list)
	list.Flags().StringVar(&strategy, "strategy", string(repositories.FetchJoin), "naive, join, join-all, projection or flat")

	var verifyFlags searchFlags
	var asJSON bool
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Run every fetch strategy and compare the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			search, err := verifyFlags.search()
			if err != nil {
				return err
			}
			svcs, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			v, err := verifyStrategies(cmd.Context(), svcs.Orders, search)
			if err != nil {
				return err
			}
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), v); err != nil {
					return err
				}
			} else {
				printVerification(cmd.OutOrStdout(), v)
			}
			if bad := v.Mismatches(); len(bad) > 0 {
				return &exitErr{code: 3, msg: fmt.Sprintf("strategies disagree with %s: %v", v.Baseline, bad)}
			}
			return nil
		},
	}
	verifyFlags.register(verify)
	verify.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	orders.AddCommand(list, verify)
	return orders
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
