package qsscore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qs_score_recalculations_total",
		Help: "Company recalculation runs by result.",
	}, []string{"result"})

	recalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qs_score_recalculation_duration_seconds",
		Help:    "Wall-clock duration of company recalculation runs.",
		Buckets: prometheus.DefBuckets,
	})

	areasScoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qs_score_areas_scored_total",
		Help: "Area score rows written by recalculation runs.",
	})
)
