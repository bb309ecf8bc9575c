// Package runner drives a record source over a list of domains and appends
// every record it yields to the output table.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
	"github.com/grez-lucas/traffic-scraper/internal/table"
)

// Summary counts what a run did.
type Summary struct {
	Total   int
	Written int
	Empty   int
	// LimitReached is set when the source ran out of daily quota and the
	// run stopped early.
	LimitReached bool
}

type Runner struct {
	Source     source.RecordSource
	Writer     *table.Writer
	OutputPath string
	// Overwrite truncates OutputPath on the first write of the run instead
	// of merging into the existing table. A run that writes nothing, because
	// every domain was empty or the limit came first, leaves the previous
	// table in place.
	Overwrite bool
	Logger    *slog.Logger
}

// Run fetches each domain in order. Empty domains are skipped, a reached
// limit ends the run without error, and any other failure aborts it. Rows
// written before the run ends stay in the output.
func (r *Runner) Run(ctx context.Context, domains []string) (Summary, error) {
	sum := Summary{Total: len(domains)}
	if r.Source == nil {
		return sum, errors.New("runner has no record source")
	}

	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	w := r.Writer
	if w == nil {
		w = &table.Writer{}
	}

	first := r.Overwrite
	for i, domain := range domains {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		res, err := r.Source.Fetch(ctx, domain)
		if err != nil {
			return sum, fmt.Errorf("fetch %s: %w", domain, err)
		}

		switch res.Status {
		case source.StatusEmpty:
			sum.Empty++
			log.InfoContext(ctx, "empty", "domain", domain, "n", i+1, "total", sum.Total)

		case source.StatusLimitReached:
			sum.LimitReached = true
			log.WarnContext(ctx, "limit reached", "domain", domain, "n", i+1, "total", sum.Total,
				"written", sum.Written)
			return sum, nil

		case source.StatusOK:
			if res.Record == nil {
				return sum, fmt.Errorf("fetch %s: ok result without a record", domain)
			}
			if err := w.Append(res.Record, r.OutputPath, first); err != nil {
				return sum, err
			}
			first = false
			sum.Written++
			log.InfoContext(ctx, "written", "domain", domain, "n", i+1, "total", sum.Total)

		default:
			return sum, fmt.Errorf("fetch %s: unknown status %q", domain, res.Status)
		}
	}

	log.InfoContext(ctx, "run finished", "written", sum.Written, "empty", sum.Empty, "total", sum.Total)
	return sum, nil
}
