// Package metrics exposes a Prometheus /metrics endpoint mirroring a
// gobori.Stats snapshot as gauges, for cmd/gobori's long-running "watch"
// mode: package-level prometheus.NewGauge/prometheus.MustRegister at init,
// with a Refresh call that sets gauge values from a live source so a scrape
// never sees stale numbers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soraci/gobori/pkg/gobori"
)

var (
	restartCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gobori_restart_count",
		Help: "Number of restarts performed by the current search.",
	})
	failCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gobori_fail_count",
		Help: "Number of dead ends (frame exhaustions) hit by the current search.",
	})
	maxDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gobori_max_depth",
		Help: "Deepest DFS stack reached by the current search.",
	})
	avgDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gobori_avg_depth",
		Help: "Average DFS stack depth over the current search.",
	})
	nogoodCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gobori_nogood_count",
		Help: "Total NoGoods learned so far.",
	})
	nogoodsSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gobori_nogoods_size",
		Help: "Current size of the learned NoGood pool after eviction.",
	})
	nogoodPruneCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gobori_nogood_prune_count",
		Help: "Conflicts detected directly by NoGood unit propagation.",
	})
)

func init() {
	prometheus.MustRegister(
		restartCount, failCount, maxDepth, avgDepth,
		nogoodCount, nogoodsSize, nogoodPruneCount,
	)
}

// Refresh sets every gauge from one Stats snapshot. Call it immediately
// before serving a scrape, or periodically from a "watch" mode poll loop.
// Unlike internal/logging (which the core never imports, since it hooks
// into the search loop itself), metrics only ever reads a finished Stats
// value handed back by the Solver façade, so importing pkg/gobori directly
// here adds no coupling back from the core.
func Refresh(s gobori.Stats) {
	restartCount.Set(float64(s.RestartCount))
	failCount.Set(float64(s.FailCount))
	maxDepth.Set(float64(s.MaxDepth))
	avgDepth.Set(s.AvgDepth())
	nogoodCount.Set(float64(s.NogoodCount))
	nogoodsSize.Set(float64(s.NogoodsSize))
	nogoodPruneCount.Set(float64(s.NogoodPruneCount))
}

// Handler returns the promhttp handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
