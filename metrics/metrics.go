/*
metrics.go - Prometheus instrumentation for the HR engine

PURPOSE:
  Collects operational counters for the leave lifecycle and role
  synchronization. Exposed at GET /metrics through promhttp.

METRICS:
  hr_leaves_created_total            Leave requests created
  hr_leave_reviews_total             Reviews, labelled by track and decision
  hr_leave_withdrawals_total         Withdrawn leaves
  hr_role_sync_total                 Manager role grants/releases, by action
  hr_http_requests_total             Responses, labelled by status code

USAGE:
  reg := prometheus.NewRegistry()
  collector := metrics.NewCollector(reg)
  collector.RecordLeaveCreated()

SEE ALSO:
  - api/server.go: Mounts the /metrics endpoint
  - api/handlers.go: Records lifecycle events
*/
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector aggregates the engine's Prometheus counters.
type Collector struct {
	leavesCreated prometheus.Counter
	leaveReviews  *prometheus.CounterVec
	withdrawals   prometheus.Counter
	roleSync      *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		leavesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hr_leaves_created_total",
			Help: "Total leave requests created",
		}),
		leaveReviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_leave_reviews_total",
			Help: "Total leave reviews by track and decision",
		}, []string{"track", "decision"}),
		withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hr_leave_withdrawals_total",
			Help: "Total leave requests withdrawn",
		}),
		roleSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_role_sync_total",
			Help: "Total manager role synchronizations by action",
		}, []string{"action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hr_http_requests_total",
			Help: "Total HTTP responses by status code",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.leavesCreated,
		c.leaveReviews,
		c.withdrawals,
		c.roleSync,
		c.httpRequests,
	)

	return c
}

// RecordLeaveCreated counts a newly created leave request.
func (c *Collector) RecordLeaveCreated() {
	c.leavesCreated.Inc()
}

// RecordLeaveReview counts a resolved review on the given track.
func (c *Collector) RecordLeaveReview(track, decision string) {
	c.leaveReviews.WithLabelValues(track, decision).Inc()
}

// RecordWithdrawal counts a withdrawn leave.
func (c *Collector) RecordWithdrawal() {
	c.withdrawals.Inc()
}

// RecordRoleSync counts a manager role grant or release.
func (c *Collector) RecordRoleSync(action string) {
	c.roleSync.WithLabelValues(action).Inc()
}

// RecordHTTPStatus counts a response by status code.
func (c *Collector) RecordHTTPStatus(status int) {
	c.httpRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}
