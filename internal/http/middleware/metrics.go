package middleware

import "github.com/prometheus/client_golang/prometheus"

var (
	RLRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limiter_requests_total",
		Help: "Requests that passed the API rate limiter",
	}, []string{"endpoint"})
	RLBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limiter_blocked_total",
		Help: "Requests rejected by the API rate limiter",
	}, []string{"endpoint"})
)

func init() {
	prometheus.MustRegister(RLRequests, RLBlocked)
}
