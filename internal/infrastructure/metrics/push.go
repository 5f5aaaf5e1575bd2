package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job the admin CLI reports under.
const PushJob = "roulette_cli"

// Push sends the collectors of g to a Prometheus Pushgateway.
//
// Matcher runs and finalizations happen in short-lived CLI processes, so
// nothing would ever scrape them. Push uses POST, which replaces only the
// metric families present in this run: a "vote" run does not wipe the
// finalize counters left by an earlier "finalize" run.
func Push(ctx context.Context, g prometheus.Gatherer, url, job string) error {
	if url == "" {
		return nil
	}
	if job == "" {
		job = PushJob
	}
	if err := push.New(url, job).Gatherer(g).AddContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
