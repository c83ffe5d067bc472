package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/sync/errgroup"

	"github.com/ghuser/ghshop/pkg/database"
	appsvcs "github.com/ghuser/ghshop/services/shop/application/services"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
	"github.com/ghuser/ghshop/services/shop/domain/views"
)

// strategyRun is the outcome of one strategy in a verification.
type strategyRun struct {
	Strategy   repositories.FetchStrategy `json:"strategy"`
	Orders     int                        `json:"orders"`
	RoundTrips int                        `json:"round_trips"`
	Skipped    string                     `json:"skipped,omitempty"`
	Patch      string                     `json:"patch,omitempty"`

	result []views.Order
}

// verification compares every strategy against the first one that ran.
type verification struct {
	Baseline repositories.FetchStrategy `json:"baseline"`
	Runs     []strategyRun              `json:"runs"`
}

// Mismatches lists the strategies whose result differs from the baseline.
func (v verification) Mismatches() []repositories.FetchStrategy {
	var out []repositories.FetchStrategy
	for _, r := range v.Runs {
		if r.Patch != "" {
			out = append(out, r.Strategy)
		}
	}
	return out
}

// verifyStrategies runs search with every strategy concurrently, each under
// its own round-trip counter.
func verifyStrategies(ctx context.Context, orders *appsvcs.OrderService, search repositories.OrderSearch) (verification, error) {
	runs := make([]strategyRun, len(repositories.Strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, strategy := range repositories.Strategies {
		runs[i].Strategy = strategy
		if strategy == repositories.FetchJoinAll && search.Paged() {
			runs[i].Skipped = "pagination unsupported"
			continue
		}
		g.Go(func() error {
			runCtx, trips := database.CountRoundTrips(gctx)
			result, err := orders.Search(runCtx, search, strategy)
			if err != nil {
				return err
			}
			views.Sort(result)
			runs[i].result = result
			runs[i].Orders = len(result)
			runs[i].RoundTrips = trips.Count()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return verification{}, err
	}

	v := verification{Runs: runs}
	base := slices.IndexFunc(runs, func(r strategyRun) bool { return r.Skipped == "" })
	if base < 0 {
		return v, nil
	}
	v.Baseline = runs[base].Strategy
	for i := range runs {
		if i == base || runs[i].Skipped != "" || views.SameSet(runs[base].result, runs[i].result) {
			continue
		}
		patch, err := diffOrders(runs[base].result, runs[i].result)
		if err != nil {
			return verification{}, err
		}
		runs[i].Patch = patch
	}
	return v, nil
}

// diffOrders renders a diff-match-patch patch from want to got.
func diffOrders(want, got []views.Order) (string, error) {
	before, err := json.MarshalIndent(want, "", "  ")
	if err != nil {
		return "", err
	}
	after, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		return "", err
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(before), string(after), false)
	return dmp.PatchToText(dmp.PatchMake(string(before), diffs)), nil
}

func printVerification(w io.Writer, v verification) {
	fmt.Fprintf(w, "%-12s %8s %12s  %s\n", "STRATEGY", "ORDERS", "ROUND TRIPS", "RESULT")
	for _, r := range v.Runs {
		var result string
		switch {
		case r.Skipped != "":
			result = "skipped: " + r.Skipped
		case r.Strategy == v.Baseline:
			result = "baseline"
		case r.Patch != "":
			result = "MISMATCH"
		default:
			result = "ok"
		}
		fmt.Fprintf(w, "%-12s %8d %12d  %s\n", r.Strategy, r.Orders, r.RoundTrips, result)
	}
	for _, r := range v.Runs {
		if r.Patch == "" {
			continue
		}
		fmt.Fprintf(w, "\n# %s vs %s\n%s", r.Strategy, v.Baseline, strings.TrimRight(r.Patch, "\n")+"\n")
	}
}
