package migrate

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Tracker receives batch progress events. The status server implements it;
// a nil Tracker disables tracking.
type Tracker interface {
	Start(zone string)
	Done(result Result)
}

// Runner migrates a list of zones sequentially, in the given order.
type Runner struct {
	Migrator *Migrator
	// IgnoreFailures keeps the batch going past a failed zone. When false
	// the first failure halts the batch and remaining zones are not
	// attempted.
	IgnoreFailures bool
	Tracker        Tracker
	Log            logrus.FieldLogger
}

// Run migrates every named zone and returns the per-zone results. In
// fail-fast mode the halting error is returned alongside the results
// collected so far.
func (r *Runner) Run(ctx context.Context, zones []string) ([]Result, error) {
	results := make([]Result, 0, len(zones))
	for _, zone := range zones {
		if r.Tracker != nil {
			r.Tracker.Start(zone)
		}
		res := r.Migrator.Migrate(ctx, zone)
		if r.Tracker != nil {
			r.Tracker.Done(res)
		}
		results = append(results, res)

		if res.Outcome == OutcomeFailed {
			if !r.IgnoreFailures {
				return results, res.Err
			}
			r.Log.WithField("zone", zone).
				Errorf("failed to create the zone, moving on to the next: %v", res.Err)
		}
	}
	return results, nil
}
