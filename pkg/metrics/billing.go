package metrics

import "github.com/prometheus/client_golang/prometheus"

// Invoice generation skip reasons.
const (
	SkipReasonDuplicate      = "duplicate"
	SkipReasonMissingPackage = "missing_package"
)

// BillingMetrics counts invoice generation and payment outcomes.
type BillingMetrics struct {
	generated *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	paid      prometheus.Counter
}

// NewBillingMetrics registers the billing counters on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netbill_invoices_generated_total",
		Help: "Invoices created by generation runs.",
	}, []string{"period"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netbill_invoices_skipped_total",
		Help: "Eligible customers skipped during generation, by reason.",
	}, []string{"reason"})
	paid := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netbill_invoices_paid_total",
		Help: "Invoices marked as paid.",
	})
	reg.MustRegister(generated, skipped, paid)
	return &BillingMetrics{
		generated: generated,
		skipped:   skipped,
		paid:      paid,
	}
}

// AddGenerated adds n created invoices for period (YYYY-MM).
func (b *BillingMetrics) AddGenerated(period string, n int) {
	if b == nil || b.generated == nil || n <= 0 {
		return
	}
	b.generated.WithLabelValues(period).Add(float64(n))
}

// IncSkipped increments the skip counter for reason.
func (b *BillingMetrics) IncSkipped(reason string) {
	if b == nil || b.skipped == nil {
		return
	}
	b.skipped.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncPaid increments the paid counter.
func (b *BillingMetrics) IncPaid() {
	if b == nil || b.paid == nil {
		return
	}
	b.paid.Inc()
}
