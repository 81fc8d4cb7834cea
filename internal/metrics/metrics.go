package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	socialMetricsOnce sync.Once

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend request attempts",
		},
		[]string{"status"},
	)

	friendAcceptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_accepts_total",
			Help: "Total number of friend request accept attempts",
		},
		[]string{"status"},
	)

	friendDeclinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_declines_total",
			Help: "Total number of friend request decline attempts",
		},
		[]string{"status"},
	)

	inviteAcceptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_invite_accepts_total",
			Help: "Total number of trip invite accept attempts",
		},
		[]string{"status"},
	)

	aiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI proxy requests by kind",
		},
		[]string{"kind", "status"},
	)
)

func RegisterSocialMetrics() {
	socialMetricsOnce.Do(func() {
		prometheus.MustRegister(friendRequestsTotal, friendAcceptsTotal, friendDeclinesTotal, inviteAcceptsTotal, aiRequestsTotal)
	})
}

func IncFriendRequest(status string) {
	RegisterSocialMetrics()
	friendRequestsTotal.WithLabelValues(status).Inc()
}

func IncFriendAccept(status string) {
	RegisterSocialMetrics()
	friendAcceptsTotal.WithLabelValues(status).Inc()
}

func IncFriendDecline(status string) {
	RegisterSocialMetrics()
	friendDeclinesTotal.WithLabelValues(status).Inc()
}

func IncInviteAccept(status string) {
	RegisterSocialMetrics()
	inviteAcceptsTotal.WithLabelValues(status).Inc()
}

func IncAIRequest(kind, status string) {
	RegisterSocialMetrics()
	aiRequestsTotal.WithLabelValues(kind, status).Inc()
}
