package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_swipes_total",
			Help: "Total number of swipe actions",
		},
		[]string{"action"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_matches_total",
			Help: "Total number of mutual matches created",
		},
	)

	rewindsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_rewinds_total",
			Help: "Total number of rewound swipe actions",
		},
	)

	quotaDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_quota_denials_total",
			Help: "Unlock attempts denied pending payment",
		},
		[]string{"item_type"},
	)

	topPicksCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_top_picks_cache_total",
			Help: "Top picks cache lookups",
		},
		[]string{"result"},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_compatibility_scores",
			Help:    "Distribution of compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

func RecordSwipe(action string) {
	swipesTotal.WithLabelValues(action).Inc()
}

func RecordMatch() {
	matchesTotal.Inc()
}

func RecordRewind() {
	rewindsTotal.Inc()
}

func RecordQuotaDenial(itemType string) {
	quotaDenialsTotal.WithLabelValues(itemType).Inc()
}

func RecordTopPicksCache(hit bool) {
	if hit {
		topPicksCache.WithLabelValues("hit").Inc()
	} else {
		topPicksCache.WithLabelValues("miss").Inc()
	}
}

func RecordCompatibilityScore(score float64) {
	compatibilityScores.Observe(score)
}
