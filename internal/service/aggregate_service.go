package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// AggregateService runs the single-scope pipeline independently per account
// and combines the resulting series. Running an institution's combined
// ledger through one pipeline would co-mingle position state for symbols
// held in several accounts and corrupt the synthetic/neutralization logic,
// so each account is always reconstructed in isolation first.
type AggregateService struct {
	timelineService  *TimelineService
	valuationService *ValuationService
	flowService      *FlowService
}

// NewAggregateService creates a new AggregateService with the provided pipeline stages.
func NewAggregateService(
	timelineService *TimelineService,
	valuationService *ValuationService,
	flowService *FlowService,
) *AggregateService {
	return &AggregateService{
		timelineService:  timelineService,
		valuationService: valuationService,
		flowService:      flowService,
	}
}

// ScopeInput is the pre-resolved, in-memory record set for one account
// scope. All retrieval happens before the pipeline starts; nothing in the
// core computation blocks on I/O.
type ScopeInput struct {
	Scope        model.ScopeKey
	Transactions []model.CanonicalTransaction
	Flows        []model.CanonicalFlowEvent
	Snapshots    []model.PositionSnapshot
}

// ScopeOutput is one account's reconstructed monthly series plus the
// diagnostics gathered along the way.
type ScopeOutput struct {
	Series              *model.MonthlySeries
	InternalTransferSum float64
	Diagnostics         model.Diagnostics
	Warnings            []model.Warning
	PricedPoints        int
	RequiredPoints      int
}

// RunScopes executes the per-account pipelines concurrently. The pipelines
// are independent pure computations with no shared state; the only ordering
// requirement is that all complete before combination, which errgroup.Wait
// provides.
func (s *AggregateService) RunScopes(
	ctx context.Context,
	inputs []ScopeInput,
	prices map[string][]model.SymbolPrice,
	endMonth string,
	opts TimelineOptions,
	boundary map[model.ScopeKey]bool,
) ([]*ScopeOutput, error) {

	outputs := make([]*ScopeOutput, len(inputs))
	g, _ := errgroup.WithContext(ctx)

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			out, err := s.runScope(input, prices, endMonth, opts, boundary)
			if err != nil {
				return fmt.Errorf("scope %s: %w", input.Scope, err)
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outputs, nil
}

// runScope is the single-scope pipeline: timeline reconstruction, month-end
// valuation, and flow derivation, assembled into one MonthlySeries.
func (s *AggregateService) runScope(
	input ScopeInput,
	prices map[string][]model.SymbolPrice,
	endMonth string,
	opts TimelineOptions,
	boundary map[model.ScopeKey]bool,
) (*ScopeOutput, error) {

	timeline, err := s.timelineService.BuildTimeline(input.Scope.String(), input.Transactions, input.Snapshots, opts)
	if err != nil {
		return nil, err
	}

	flows := s.flowService.DeriveMonthlyFlows(input.Flows, timeline.DerivedFlows, boundary)

	output := &ScopeOutput{
		Series:              model.NewMonthlySeries(input.Scope.String()),
		InternalTransferSum: flows.InternalTransferSum,
		Warnings:            append(timeline.Warnings, flows.Warnings...),
		Diagnostics: model.Diagnostics{
			SyntheticEntries:    timeline.SyntheticInceptions + timeline.SyntheticBalancing + timeline.SyntheticTransfers,
			SyntheticInceptions: timeline.SyntheticInceptions,
			SyntheticBalancing:  timeline.SyntheticBalancing,
			SyntheticTransfers:  timeline.SyntheticTransfers,
			DroppedLegs:         timeline.DroppedLegs,
			ExcludedLegs:        timeline.ExcludedLegs,
			ExcludedFlows:       flows.ExcludedFlows,
		},
	}

	firstMonth := scopeFirstMonth(timeline.Timeline, flows)
	if firstMonth == "" || firstMonth > endMonth {
		return output, nil
	}

	months := model.MonthRange(firstMonth, endMonth)
	valuation := s.valuationService.ValueTimeline(timeline.Timeline, prices, months)

	output.Series.Months = months
	output.Series.NAV = valuation.NAV
	output.Series.NetFlow = flows.NetFlow
	output.Series.WeightedFlow = flows.WeightedFlow
	output.Diagnostics.ExcludedSymbols = valuation.ExcludedSymbols
	output.Warnings = append(output.Warnings, valuation.Warnings...)
	output.PricedPoints = valuation.PricedPoints
	output.RequiredPoints = valuation.RequiredPoints

	return output, nil
}

// Combine merges per-scope outputs into the series the return calculator
// runs on once. With a single scope the series passes through unchanged
// (the backward-compatible fast path); otherwise every scope is reindexed
// onto the union month calendar and summed element-wise. Per-scope returns
// are never computed here and never averaged; summed NAV and flows are the
// only valid aggregation primitives.
func (s *AggregateService) Combine(outputs []*ScopeOutput) (*model.MonthlySeries, model.Diagnostics, []model.Warning) {
	diag := model.Diagnostics{}
	var warnings []model.Warning
	var internalSum float64
	var priced, required int

	series := make([]*model.MonthlySeries, 0, len(outputs))
	for _, out := range outputs {
		series = append(series, out.Series)
		warnings = append(warnings, out.Warnings...)
		internalSum += out.InternalTransferSum
		priced += out.PricedPoints
		required += out.RequiredPoints

		diag.SyntheticEntries += out.Diagnostics.SyntheticEntries
		diag.SyntheticInceptions += out.Diagnostics.SyntheticInceptions
		diag.SyntheticBalancing += out.Diagnostics.SyntheticBalancing
		diag.SyntheticTransfers += out.Diagnostics.SyntheticTransfers
		diag.DroppedLegs += out.Diagnostics.DroppedLegs
		diag.ExcludedLegs += out.Diagnostics.ExcludedLegs
		diag.ExcludedFlows += out.Diagnostics.ExcludedFlows
		diag.ExcludedSymbols = append(diag.ExcludedSymbols, out.Diagnostics.ExcludedSymbols...)
	}
	sort.Strings(diag.ExcludedSymbols)

	diag.DataCoverage = 1.0
	if required > 0 {
		diag.DataCoverage = float64(priced) / float64(required)
	}

	// Transfers between scopes inside one aggregation boundary must net to
	// zero; a residual means a classification bug, surfaced as a diagnostic
	// rather than a silent imbalance.
	diag.TransferResidual = internalSum
	if math.Abs(internalSum) > flowTolerance {
		warnings = append(warnings, newWarning(
			model.WarningTransferImbalance, time.Time{}, "", internalSum,
			fmt.Sprintf("internal transfers net to %.4f instead of zero across aggregated scopes", internalSum),
		))
	}

	if len(outputs) == 1 {
		return outputs[0].Series, diag, warnings
	}

	agg := model.SumSeries(series)
	combined := agg.MonthlySeries
	return &combined, diag, warnings
}

// scopeFirstMonth finds the earliest month with any activity for a scope,
// across timeline entries and external flows. Returns "" for a scope with
// no data at all.
func scopeFirstMonth(timeline *model.PositionTimeline, flows *FlowResult) string {
	first := ""
	for _, entries := range timeline.Entries {
		for _, e := range entries {
			if m := model.MonthKey(e.Timestamp); first == "" || m < first {
				first = m
			}
		}
	}
	for m := range flows.NetFlow {
		if first == "" || m < first {
			first = m
		}
	}
	return first
}
