package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(attendanceEventsTotal) }

var attendanceEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "attendance_events_total",
		Help: "Attendance ledger writes by event and verification method.",
	},
	[]string{"event", "method"}, // event: check_in/check_out/absent
)

func IncAttendanceEvent(event, method string) {
	attendanceEventsTotal.WithLabelValues(norm(event), norm(method)).Inc()
}
