package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "construction_accounting"

// Metrics holds the application counters
type Metrics struct {
	PlansCreated          prometheus.Counter
	InstallmentsPaid      prometheus.Counter
	InstallmentsCancelled prometheus.Counter
	RemindersGenerated    *prometheus.CounterVec
}

// New creates the counters and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PlansCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_plans_created_total",
			Help:      "Payment plans created.",
		}),
		InstallmentsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_paid_total",
			Help:      "Installments moved to Paid.",
		}),
		InstallmentsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_cancelled_total",
			Help:      "Installments moved to Cancelled.",
		}),
		RemindersGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reminders_generated_total",
			Help:      "Payment notifications generated by the reminder job.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.PlansCreated, m.InstallmentsPaid, m.InstallmentsCancelled, m.RemindersGenerated)
	return m
}

// Handler serves the metrics gathered by g in the Prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
