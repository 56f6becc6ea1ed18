package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(membershipActivationsTotal, membershipsActive)
}

var (
	membershipActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_activations_total",
			Help: "Membership state changes (activated/refunded/expired).",
		},
		[]string{"event"},
	)

	membershipsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "memberships_active",
			Help: "Currently active, unexpired memberships (sampled).",
		},
	)
)

func IncMembershipEvent(event string) {
	membershipActivationsTotal.WithLabelValues(norm(event)).Inc()
}

func SetActiveMemberships(n int) {
	membershipsActive.Set(float64(n))
}
