package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OAuthOutcomes counts terminal and relayed results of OAuth callbacks
	OAuthOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xreacher_gateway_oauth_outcomes_total",
		Help: "OAuth linking callback outcomes by result and reason",
	}, []string{"outcome", "reason"})

	// TargetingJobs counts finished secondary targeting jobs
	TargetingJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xreacher_gateway_targeting_jobs_total",
		Help: "Secondary targeting jobs by target type and final status",
	}, []string{"target_type", "status"})

	// TargetingInFlight tracks targeting jobs whose backend call has not returned
	TargetingInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xreacher_gateway_targeting_in_flight",
		Help: "Targeting jobs currently waiting on the backend",
	})

	// BackendRequests counts calls to the backend by method and status class
	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xreacher_gateway_backend_requests_total",
		Help: "Requests sent to the backend by method and status class",
	}, []string{"method", "status"})

	// DraftSubmissions counts campaign draft submissions by result
	DraftSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xreacher_gateway_draft_submissions_total",
		Help: "Campaign draft submissions by result",
	}, []string{"result"})
)
