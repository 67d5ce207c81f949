package metrics

import (
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// VaultMetrics aggregates the engine's operational gauges and counters.
type VaultMetrics struct {
	opsCommitted    *prometheus.CounterVec
	opsFailed       *prometheus.CounterVec
	effectiveFeeBps *prometheus.GaugeVec
	collateralRatio prometheus.Gauge
	tvlSol          prometheus.Gauge
	roundingReserve prometheus.Gauge
}

var (
	vaultOnce     sync.Once
	vaultRegistry *VaultMetrics
)

// Vault returns the process-wide vault metrics registry, registering the
// collectors on first use.
func Vault() *VaultMetrics {
	vaultOnce.Do(func() {
		vaultRegistry = &VaultMetrics{
			opsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_operations_committed_total",
				Help: "Count of committed vault operations by kind.",
			}, []string{"kind"}),
			opsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_operations_failed_total",
				Help: "Count of rejected or aborted vault operations by kind.",
			}, []string{"kind"}),
			effectiveFeeBps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "vault_effective_fee_bps",
				Help: "Effective fee charged by the most recent operation of each kind.",
			}, []string{"kind"}),
			collateralRatio: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_collateral_ratio_bps",
				Help: "System collateral ratio in basis points, +Inf with no liability.",
			}),
			tvlSol: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_tvl_lamports",
				Help: "Total value locked in SOL base units.",
			}),
			roundingReserve: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_rounding_reserve_lamports",
				Help: "Cumulative integer-division residue retained by the vault.",
			}),
		}
		prometheus.MustRegister(
			vaultRegistry.opsCommitted,
			vaultRegistry.opsFailed,
			vaultRegistry.effectiveFeeBps,
			vaultRegistry.collateralRatio,
			vaultRegistry.tvlSol,
			vaultRegistry.roundingReserve,
		)
	})
	return vaultRegistry
}

// OperationCommitted records a successful operation and its effective fee.
func (m *VaultMetrics) OperationCommitted(kind string, feeBps uint64) {
	if m == nil {
		return
	}
	m.opsCommitted.WithLabelValues(kind).Inc()
	m.effectiveFeeBps.WithLabelValues(kind).Set(float64(feeBps))
}

// OperationFailed records a rejected or aborted operation.
func (m *VaultMetrics) OperationFailed(kind string) {
	if m == nil {
		return
	}
	m.opsFailed.WithLabelValues(kind).Inc()
}

// ObserveState refreshes the balance-sheet gauges after a commit.
func (m *VaultMetrics) ObserveState(tvlSol, crBps uint64, crInfinite bool, roundingReserve uint64) {
	if m == nil {
		return
	}
	m.tvlSol.Set(float64(tvlSol))
	if crInfinite {
		m.collateralRatio.Set(math.Inf(1))
	} else {
		m.collateralRatio.Set(float64(crBps))
	}
	m.roundingReserve.Set(float64(roundingReserve))
}
