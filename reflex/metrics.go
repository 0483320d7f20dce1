package reflex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var checkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "becasmod_reflex_check_duration_sec",
	Help:    "Duration of reflex detector bank evaluation",
	Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
})

var responseCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "becasmod_reflex_responses",
	Help: "Number of reflex responses by kind",
}, []string{"kind"})

var detectorHitCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "becasmod_reflex_detector_hits",
	Help: "Number of detector bank hits by detector",
}, []string{"detector"})
