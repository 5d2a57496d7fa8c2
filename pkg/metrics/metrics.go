package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the application collectors. It is separate from the global
// default registry so tests can build fresh instances.
type Registry struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	HTTPRequests         *prometheus.CounterVec
	InvoicesCreated      prometheus.Counter
	Settlements          *prometheus.CounterVec
	Notifications        *prometheus.CounterVec
	ValidationRejections *prometheus.CounterVec
	InvoicesExpired      prometheus.Counter
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		Registerer: reg,
		Gatherer:   reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crypto_invoice_http_requests_total",
			Help: "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"}),
		InvoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crypto_invoice_invoices_created_total",
			Help: "Invoices created.",
		}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crypto_invoice_settlements_total",
			Help: "Settlement signals, by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crypto_invoice_notifications_total",
			Help: "Notification e-mails, by type and outcome.",
		}, []string{"type", "outcome"}),
		ValidationRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crypto_invoice_data_validation_rejections_total",
			Help: "Data callback rejections, by field.",
		}, []string{"field"}),
		InvoicesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crypto_invoice_invoices_expired_total",
			Help: "Invoices moved to expired by the expiry job.",
		}),
	}
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.InvoicesCreated,
		m.Settlements,
		m.Notifications,
		m.ValidationRejections,
		m.InvoicesExpired,
	)
	return m
}

// The nil-safe helpers below let components run without metrics wired.

func (m *Registry) IncInvoiceCreated() {
	if m != nil {
		m.InvoicesCreated.Inc()
	}
}

func (m *Registry) IncSettlement(outcome string) {
	if m != nil {
		m.Settlements.WithLabelValues(outcome).Inc()
	}
}

func (m *Registry) IncNotification(kind, outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Registry) IncValidationRejection(field string) {
	if m != nil {
		m.ValidationRejections.WithLabelValues(field).Inc()
	}
}

func (m *Registry) AddExpired(n int64) {
	if m != nil && n > 0 {
		m.InvoicesExpired.Add(float64(n))
	}
}

func (m *Registry) ObserveRequest(method, route, status string) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	}
}
