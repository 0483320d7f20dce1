package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var effectCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "becasmod_pipeline_effects_applied",
	Help: "Number of moderation side effects successfully applied",
}, []string{"effect"})

var panicCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "becasmod_pipeline_panics_recovered",
	Help: "Number of panics recovered during event processing",
})
