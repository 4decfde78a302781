package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jdewinter/Realized-Performance-Backend/internal/apperrors"
	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// TimelineService reconstructs, per tradable instrument, the chronological
// sequence of position-changing events for one account scope, injecting
// synthetic entries where real history is missing.
type TimelineService struct{}

// NewTimelineService creates a new TimelineService.
func NewTimelineService() *TimelineService {
	return &TimelineService{}
}

// TimelineOptions carries the per-request policy choices for timeline
// reconstruction. Both are resolved once per request and passed down so all
// components see one consistent choice.
type TimelineOptions struct {
	// PerSymbolInception anchors missing-opening synthetics one instant
	// before the symbol's own earliest observed transaction. Enable only for
	// institutions whose feed is materially complete; on a bounded-lookback
	// feed this silently overstates the holding period during the truncated
	// window, so the global-inception fallback is the safe default.
	PerSymbolInception bool

	// Mode selects the incomplete-trade neutralization strategy.
	Mode model.NeutralizationMode
}

// TimelineResult is the output of one scope's timeline reconstruction,
// including the flow events derived from non-economic transfer records and
// the diagnostics needed to audit every correction.
type TimelineResult struct {
	Timeline     *model.PositionTimeline
	DerivedFlows []model.CanonicalFlowEvent
	Warnings     []model.Warning

	SyntheticInceptions int
	SyntheticBalancing  int
	SyntheticTransfers  int
	DroppedLegs         int
	ExcludedLegs        int
}

// transferValue is the single valuation extraction used for BOTH sides of a
// transfer pairing: the synthetic acquisition entry and the derived external
// flow event. Using one extractor guarantees the pair's net cash effect is
// exactly zero; valuing the two sides differently would silently create
// phantom return.
func transferValue(t model.CanonicalTransaction) float64 {
	return t.Price * t.Quantity
}

// BuildTimeline reconstructs the position timeline for one account scope
// from its full chronological transaction history plus broker-reported
// current holdings.
//
// Two gap situations produce synthetic entries:
//   - a reported holding with no observed opening (history predates the
//     records): one inception entry anchored per the inception policy;
//   - a close with no matched open: handled per opts.Mode, either dropping
//     the orphan-creating leg or injecting a balancing open just before it.
//
// Non-economic transfer records become a synthetic acquisition (or disposal)
// paired with a derived external flow of identical value.
//
// Unparseable or zero/negative-quantity legs are excluded with a counted
// warning, never silently dropped.
func (s *TimelineService) BuildTimeline(
	account string,
	transactions []model.CanonicalTransaction,
	snapshots []model.PositionSnapshot,
	opts TimelineOptions,
) (*TimelineResult, error) {

	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidNeutralizationMode, opts.Mode)
	}

	result := &TimelineResult{
		Timeline: &model.PositionTimeline{
			Account: account,
			Entries: make(map[model.SymbolKey][]model.PositionTimelineEntry),
		},
	}

	// Earliest observed instants, used as synthetic inception anchors.
	var globalEarliest time.Time
	symbolEarliest := make(map[string]time.Time)
	for _, t := range transactions {
		if globalEarliest.IsZero() || t.Timestamp.Before(globalEarliest) {
			globalEarliest = t.Timestamp
		}
		if first, ok := symbolEarliest[t.Symbol]; !ok || t.Timestamp.Before(first) {
			symbolEarliest[t.Symbol] = t.Timestamp
		}
	}

	s.replayTransactions(transactions, result)
	s.neutralizeIncompleteTrades(opts.Mode, result)
	s.injectMissingOpenings(snapshots, symbolEarliest, globalEarliest, opts, result)

	for key := range result.Timeline.Entries {
		entries := result.Timeline.Entries[key]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		})
		result.Timeline.Entries[key] = entries
	}

	s.validateTimeline(result)

	return result, nil
}

// replayTransactions converts every valid canonical transaction into a
// timeline entry, deriving paired flow events for transfer records.
func (s *TimelineService) replayTransactions(transactions []model.CanonicalTransaction, result *TimelineResult) {
	for _, t := range transactions {
		if t.Quantity <= 0 || t.Price < 0 {
			result.ExcludedLegs++
			result.Warnings = append(result.Warnings, newWarning(
				model.WarningExcludedLeg, t.Timestamp, t.Symbol, t.Quantity,
				fmt.Sprintf("excluded leg with non-positive quantity or negative price (type %s)", t.Type),
			))
			continue
		}

		key := model.SymbolKey{Symbol: t.Symbol, Currency: t.Currency, Direction: t.Direction}

		switch t.Type {
		case model.TransactionBuy:
			s.append(result, key, model.PositionTimelineEntry{
				Key:           key,
				Account:       result.Timeline.Account,
				QuantityDelta: t.Quantity,
				Price:         t.Price,
				Timestamp:     t.Timestamp,
				TransactionID: t.ID,
			})

		case model.TransactionSell:
			s.append(result, key, model.PositionTimelineEntry{
				Key:           key,
				Account:       result.Timeline.Account,
				QuantityDelta: -t.Quantity,
				Price:         t.Price,
				Timestamp:     t.Timestamp,
				TransactionID: t.ID,
			})

		case model.TransactionTransferIn, model.TransactionTransferOut:
			s.pairTransfer(t, key, result)

		default:
			result.ExcludedLegs++
			result.Warnings = append(result.Warnings, newWarning(
				model.WarningExcludedLeg, t.Timestamp, t.Symbol, t.Quantity,
				fmt.Sprintf("excluded leg with unknown transaction type %q", t.Type),
			))
		}
	}
}

// pairTransfer represents a provider's non-economic transfer record as a
// synthetic position entry plus a matching external flow. Both sides are
// valued by transferValue so the pair nets to exactly zero cash.
func (s *TimelineService) pairTransfer(t model.CanonicalTransaction, key model.SymbolKey, result *TimelineResult) {
	value := transferValue(t)

	delta := t.Quantity
	amount := value
	classification := model.FlowContribution
	if t.Type == model.TransactionTransferOut {
		delta = -t.Quantity
		amount = -value
		classification = model.FlowWithdrawal
	}

	s.append(result, key, model.PositionTimelineEntry{
		Key:           key,
		Account:       result.Timeline.Account,
		QuantityDelta: delta,
		Price:         t.Price,
		Timestamp:     t.Timestamp,
		Synthetic:     true,
		SyntheticKind: model.SyntheticTransfer,
		TransactionID: t.ID,
	})
	result.SyntheticTransfers++

	result.DerivedFlows = append(result.DerivedFlows, model.CanonicalFlowEvent{
		ID:             uuid.New().String(),
		Source:         t.Source,
		Account:        t.Account,
		Amount:         amount,
		Timestamp:      t.Timestamp,
		Classification: classification,
		IsExternal:     true,
		CashConfirmed:  false,
	})
}

// neutralizeIncompleteTrades resolves closes with no matched open, per the
// selected mode. Walks each key chronologically tracking the running
// position; a close that would push it negative is the incomplete trade.
func (s *TimelineService) neutralizeIncompleteTrades(mode model.NeutralizationMode, result *TimelineResult) {
	for key, entries := range result.Timeline.Entries {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		})

		kept := make([]model.PositionTimelineEntry, 0, len(entries))
		var running float64

		for _, e := range entries {
			if e.QuantityDelta >= 0 || running+e.QuantityDelta >= -qtyEpsilon {
				kept = append(kept, e)
				running += e.QuantityDelta
				continue
			}

			deficit := -(running + e.QuantityDelta)

			switch mode {
			case model.NeutralizeDropOrphans:
				result.DroppedLegs++
				result.Warnings = append(result.Warnings, newWarning(
					model.WarningDroppedLeg, e.Timestamp, key.Symbol, deficit,
					fmt.Sprintf("dropped close of %.4f %s with no matched open (short by %.4f)",
						-e.QuantityDelta, key.Symbol, deficit),
				))

			case model.NeutralizeInjectOpen:
				open := model.PositionTimelineEntry{
					Key:           key,
					Account:       result.Timeline.Account,
					QuantityDelta: deficit,
					Price:         e.Price,
					Timestamp:     e.Timestamp.Add(-time.Nanosecond),
					Synthetic:     true,
					SyntheticKind: model.SyntheticBalancing,
				}
				kept = append(kept, open, e)
				running = 0
				result.SyntheticBalancing++
				result.Warnings = append(result.Warnings, newWarning(
					model.WarningSyntheticInjected, e.Timestamp, key.Symbol, deficit,
					fmt.Sprintf("injected balancing open of %.4f %s before unmatched close", deficit, key.Symbol),
				))
			}
		}

		result.Timeline.Entries[key] = kept
	}
}

// injectMissingOpenings compares broker-reported holdings against the
// replayed history and fabricates an inception entry for any quantity the
// records cannot account for.
//
// Anchor policy: with per-symbol inception enabled and real transactions
// observed for the symbol, the entry lands one instant before the symbol's
// earliest observed transaction. Otherwise it lands one instant before the
// scope's global earliest-observed date (or the snapshot date when the scope
// has no transactions at all).
func (s *TimelineService) injectMissingOpenings(
	snapshots []model.PositionSnapshot,
	symbolEarliest map[string]time.Time,
	globalEarliest time.Time,
	opts TimelineOptions,
	result *TimelineResult,
) {
	for _, snap := range snapshots {
		if snap.Quantity < qtyEpsilon {
			continue
		}

		key := snap.Key()
		var replayed float64
		for _, e := range result.Timeline.Entries[key] {
			replayed += e.QuantityDelta
		}

		gap := snap.Quantity - replayed
		if gap < -qtyEpsilon {
			result.Warnings = append(result.Warnings, newWarning(
				model.WarningSnapshotMismatch, snap.AsOf, snap.Symbol, -gap,
				fmt.Sprintf("replayed history holds %.4f more %s than the broker reports", -gap, snap.Symbol),
			))
			continue
		}
		if gap <= qtyEpsilon {
			continue
		}

		anchor := globalEarliest
		if opts.PerSymbolInception {
			if first, ok := symbolEarliest[snap.Symbol]; ok {
				anchor = first
			}
		}
		if anchor.IsZero() {
			anchor = snap.AsOf
		}

		s.append(result, key, model.PositionTimelineEntry{
			Key:           key,
			Account:       result.Timeline.Account,
			QuantityDelta: gap,
			Price:         snap.Price,
			Timestamp:     anchor.Add(-time.Nanosecond),
			Synthetic:     true,
			SyntheticKind: model.SyntheticInception,
		})
		result.SyntheticInceptions++
		result.Warnings = append(result.Warnings, newWarning(
			model.WarningSyntheticInjected, anchor, snap.Symbol, gap,
			fmt.Sprintf("injected inception of %.4f %s; opening predates available history", gap, snap.Symbol),
		))
	}
}

// validateTimeline is the single invariant-checking pass run after
// construction: a synthetic inception must never coexist with a real entry
// for the same key at or before its anchor, since the two would represent
// the same economic event twice. Violations suppress the synthetic and keep
// a warning.
func (s *TimelineService) validateTimeline(result *TimelineResult) {
	for key, entries := range result.Timeline.Entries {
		kept := entries[:0]
		for _, e := range entries {
			if e.Synthetic && e.SyntheticKind == model.SyntheticInception {
				if hasRealEntryAtOrBefore(entries, e.Timestamp) {
					result.SyntheticInceptions--
					result.Warnings = append(result.Warnings, newWarning(
						model.WarningSyntheticInjected, e.Timestamp, key.Symbol, e.QuantityDelta,
						fmt.Sprintf("suppressed inception entry for %s: real history reaches its anchor", key.Symbol),
					))
					continue
				}
			}
			kept = append(kept, e)
		}
		result.Timeline.Entries[key] = kept
	}
}

func hasRealEntryAtOrBefore(entries []model.PositionTimelineEntry, at time.Time) bool {
	for _, e := range entries {
		if !e.Synthetic && !e.Timestamp.After(at) {
			return true
		}
	}
	return false
}

func (s *TimelineService) append(result *TimelineResult, key model.SymbolKey, e model.PositionTimelineEntry) {
	result.Timeline.Entries[key] = append(result.Timeline.Entries[key], e)
}
