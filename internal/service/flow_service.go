package service

import (
	"fmt"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// FlowService replays the flow-event ledger for one account scope into the
// monthly net-external-flow and time-weighted-flow series consumed by the
// Modified Dietz calculator.
type FlowService struct{}

// NewFlowService creates a new FlowService.
func NewFlowService() *FlowService {
	return &FlowService{}
}

// FlowResult carries one scope's derived monthly flow series.
// InternalTransferSum is the signed total of transfers whose counterparty
// lies inside the aggregation boundary; summed across all scopes of one
// request it must net to approximately zero, and the aggregator raises a
// diagnostic when it does not. ExcludedFlows counts events the deriver could
// not classify, each of which also carries a warning.
type FlowResult struct {
	NetFlow             map[string]float64
	WeightedFlow        map[string]float64
	InternalTransferSum float64
	ExcludedFlows       int
	Warnings            []model.Warning
}

// DeriveMonthlyFlows classifies and buckets every flow event of one scope.
//
// A flow is external only if it represents capital crossing the aggregation
// boundary: contributions and withdrawals the normalizer confirmed external,
// plus transfers whose counterparty account is unknown or outside the
// boundary. Transfers between two accounts both inside the boundary are
// internal and contribute only to InternalTransferSum. A counterparty is
// resolved within the event's own institution, so an equally named account
// at another institution never absorbs the transfer.
//
// Events with an unrecognized classification are excluded with a counted
// warning, never silently dropped.
//
// derived holds flow events fabricated by the timeline builder for
// non-economic transfer records; they are external by construction.
func (s *FlowService) DeriveMonthlyFlows(
	events []model.CanonicalFlowEvent,
	derived []model.CanonicalFlowEvent,
	boundary map[model.ScopeKey]bool,
) *FlowResult {

	result := &FlowResult{
		NetFlow:      make(map[string]float64),
		WeightedFlow: make(map[string]float64),
	}

	for _, f := range events {
		switch f.Classification {
		case model.FlowInternalTransfer:
			counterparty := model.ScopeKey{Source: f.Source, Account: f.CounterpartyAccount}
			if f.CounterpartyAccount != "" && boundary[counterparty] {
				result.InternalTransferSum += f.Amount
				continue
			}
			s.bucket(result, f)

		case model.FlowContribution, model.FlowWithdrawal:
			if !f.IsExternal {
				continue
			}
			s.bucket(result, f)

		default:
			result.ExcludedFlows++
			result.Warnings = append(result.Warnings, newWarning(
				model.WarningExcludedFlow, f.Timestamp, "", f.Amount,
				fmt.Sprintf("excluded flow event with unknown classification %q", f.Classification),
			))
		}
	}

	for _, f := range derived {
		s.bucket(result, f)
	}

	return result
}

// bucket adds one external flow to the month it occurred in, both at face
// value and scaled by the fraction of the month it was invested.
func (s *FlowService) bucket(result *FlowResult, f model.CanonicalFlowEvent) {
	month := model.MonthKey(f.Timestamp)
	result.NetFlow[month] += f.Amount
	result.WeightedFlow[month] += f.Amount * investedFraction(f.Timestamp)
}

// investedFraction returns the fraction of the month remaining at the flow's
// date, counting the flow date itself as invested.
func investedFraction(t time.Time) float64 {
	t = t.UTC()
	daysInMonth := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return float64(daysInMonth-t.Day()+1) / float64(daysInMonth)
}
