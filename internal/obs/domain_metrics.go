package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingLineItemsTotal counts line-item computations by unit type and outcome.
	PricingLineItemsTotal *prometheus.CounterVec
	// PricingCommissionShortfallTotal counts requests rejected because a minimum
	// commission exceeded the computed commission.
	PricingCommissionShortfallTotal *prometheus.CounterVec
	// PricingLineItemCount records how many line items a computation produced.
	PricingLineItemCount prometheus.Histogram
	// ListingCacheTotal counts listing cache lookups by result.
	ListingCacheTotal *prometheus.CounterVec
	// CommissionAssetTotal counts commission asset resolutions by source.
	CommissionAssetTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingLineItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_line_items_total",
			Help:      "Count of line-item computations by unit type and result.",
		}, []string{"unit_type", "result"})
		PricingCommissionShortfallTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_commission_shortfall_total",
			Help:      "Count of computations rejected by a minimum commission.",
		}, []string{"role"})
		PricingLineItemCount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_line_item_count",
			Help:      "Number of line items returned per successful computation.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 10},
		})
		ListingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_cache_total",
			Help:      "Listing cache lookups by result.",
		}, []string{"result"})
		CommissionAssetTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_asset_total",
			Help:      "Commission asset resolutions by source.",
		}, []string{"source"})

		mustRegisterCollector(reg, PricingLineItemsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PricingLineItemsTotal = v
			}
		})
		mustRegisterCollector(reg, PricingCommissionShortfallTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PricingCommissionShortfallTotal = v
			}
		})
		mustRegisterCollector(reg, PricingLineItemCount, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				PricingLineItemCount = v
			}
		})
		mustRegisterCollector(reg, ListingCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ListingCacheTotal = v
			}
		})
		mustRegisterCollector(reg, CommissionAssetTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CommissionAssetTotal = v
			}
		})
	})
}

// IncListingCache records a listing cache lookup when metrics are registered.
func IncListingCache(result string) {
	if ListingCacheTotal != nil {
		ListingCacheTotal.WithLabelValues(result).Inc()
	}
}

// IncCommissionAsset records where a commission asset was resolved from.
func IncCommissionAsset(source string) {
	if CommissionAssetTotal != nil {
		CommissionAssetTotal.WithLabelValues(source).Inc()
	}
}

// ObservePricing records the outcome of a line-item computation.
func ObservePricing(unitType, result string, items int) {
	if PricingLineItemsTotal != nil {
		PricingLineItemsTotal.WithLabelValues(unitType, result).Inc()
	}
	if result == "ok" && PricingLineItemCount != nil {
		PricingLineItemCount.Observe(float64(items))
	}
}

// IncCommissionShortfall records a minimum commission rejection.
func IncCommissionShortfall(role string) {
	if PricingCommissionShortfallTotal != nil {
		PricingCommissionShortfallTotal.WithLabelValues(role).Inc()
	}
}
