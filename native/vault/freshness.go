package vault

import "fmt"

// checkFreshness gates every user operation on the age and quality of the
// oracle snapshot and the LST exchange-rate cache. Refreshing either cursor
// is always an explicit operation, never a side effect of a read.
func (e *Engine) checkFreshness(s *GlobalState) error {
	slot := e.runtime.CurrentSlot()
	if slot > s.LastOracleUpdateSlot {
		age := slot - s.LastOracleUpdateSlot
		if age > s.MaxOracleStalenessSlots {
			return fmt.Errorf("%w: %d slots since last update, budget %d", ErrOraclePriceStale, age, s.MaxOracleStalenessSlots)
		}
	}
	if s.OracleConfidenceUSD > 0 && s.SolPriceUSD > 0 {
		confBps, err := MulDivDown(s.OracleConfidenceUSD, BPSPrecision, s.SolPriceUSD)
		if err != nil {
			return err
		}
		if confBps > s.MaxConfBps {
			return fmt.Errorf("%w: %d bps, budget %d", ErrOracleConfidenceTooWide, confBps, s.MaxConfBps)
		}
	}
	epoch := e.runtime.CurrentEpoch()
	if epoch > s.LastLstSyncEpoch {
		age := epoch - s.LastLstSyncEpoch
		if age > s.MaxLstStaleEpochs {
			return fmt.Errorf("%w: %d epochs since last sync, budget %d", ErrLstRateStale, age, s.MaxLstStaleEpochs)
		}
	}
	return nil
}
