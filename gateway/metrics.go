package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var acceptCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "becasmod_gateway_events_accepted",
	Help: "Number of events accepted by the intake gateway",
})

var dropCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "becasmod_gateway_events_dropped",
	Help: "Number of events filtered by the intake gateway",
}, []string{"reason"})

var throttleNoticeCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "becasmod_gateway_throttle_notices",
	Help: "Number of per-user throttle notices sent",
})

var lockForceGrantCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "becasmod_gateway_lock_force_grants",
	Help: "Number of scope locks force-granted after the auto-release deadline",
})

var sweptWindowCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "becasmod_gateway_swept_windows",
	Help: "Number of expired rate windows removed by the background sweep",
})
