package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DiscountEvaluationsTotal counts discount computations by applied tier and outcome.
	DiscountEvaluationsTotal *prometheus.CounterVec
	// DiscountSavingsCents accumulates savings granted, in minor units, per tier.
	DiscountSavingsCents *prometheus.CounterVec
	// DraftOrderOperationsTotal counts draft order operations by result.
	DraftOrderOperationsTotal *prometheus.CounterVec
	// LifetimeSpendLookupsTotal counts lifetime spend lookups by where the value came from.
	LifetimeSpendLookupsTotal *prometheus.CounterVec
	// SpendRefreshJobsTotal counts background spend refresh jobs by result.
	SpendRefreshJobsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers the wholesale pricing collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DiscountEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_evaluations_total",
			Help:      "Count of wholesale discount computations by tier and outcome.",
		}, []string{"tier", "outcome"})
		DiscountSavingsCents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_savings_cents_total",
			Help:      "Savings granted by wholesale pricing in minor currency units.",
		}, []string{"tier"})
		DraftOrderOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_order_operations_total",
			Help:      "Count of draft order operations by result.",
		}, []string{"operation", "result"})
		LifetimeSpendLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifetime_spend_lookups_total",
			Help:      "Count of lifetime spend lookups by source.",
		}, []string{"source"})
		SpendRefreshJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spend_refresh_jobs_total",
			Help:      "Count of lifetime spend refresh jobs by result.",
		}, []string{"result"})

		reuseCounterVec := func(dst **prometheus.CounterVec) func(prometheus.Collector) {
			return func(existing prometheus.Collector) {
				if v, ok := existing.(*prometheus.CounterVec); ok {
					*dst = v
				}
			}
		}
		mustRegisterCollector(reg, DiscountEvaluationsTotal, reuseCounterVec(&DiscountEvaluationsTotal))
		mustRegisterCollector(reg, DiscountSavingsCents, reuseCounterVec(&DiscountSavingsCents))
		mustRegisterCollector(reg, DraftOrderOperationsTotal, reuseCounterVec(&DraftOrderOperationsTotal))
		mustRegisterCollector(reg, LifetimeSpendLookupsTotal, reuseCounterVec(&LifetimeSpendLookupsTotal))
		mustRegisterCollector(reg, SpendRefreshJobsTotal, reuseCounterVec(&SpendRefreshJobsTotal))
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

// ObserveDiscount records one discount computation. tier is empty when none applied.
func ObserveDiscount(tier, outcome string, savingsCents int64) {
	if tier == "" {
		tier = "none"
	}
	if DiscountEvaluationsTotal != nil {
		DiscountEvaluationsTotal.WithLabelValues(tier, outcome).Inc()
	}
	if DiscountSavingsCents != nil && savingsCents > 0 {
		DiscountSavingsCents.WithLabelValues(tier).Add(float64(savingsCents))
	}
}

// ObserveDraftOrder records a draft order operation.
func ObserveDraftOrder(operation string, err error) {
	if DraftOrderOperationsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	DraftOrderOperationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveSpendLookup records where a lifetime spend value came from.
func ObserveSpendLookup(source string) {
	if LifetimeSpendLookupsTotal != nil {
		LifetimeSpendLookupsTotal.WithLabelValues(source).Inc()
	}
}

// ObserveSpendRefresh records a background refresh result.
func ObserveSpendRefresh(err error) {
	if SpendRefreshJobsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	SpendRefreshJobsTotal.WithLabelValues(result).Inc()
}
