package service_test

import (
	"testing"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
	"github.com/jdewinter/Realized-Performance-Backend/internal/service"
	"github.com/jdewinter/Realized-Performance-Backend/internal/testutil"
)

// TestDeriveMonthlyFlows verifies flow classification and Modified Dietz
// weighting.
// WHY: a transfer between two aggregated accounts that leaks into the
// external flow series double-counts capital, and a mis-weighted flow
// shifts every return in its month.
func TestDeriveMonthlyFlows(t *testing.T) {
	svc := service.NewFlowService()
	boundary := map[model.ScopeKey]bool{
		{Source: "testbroker", Account: "ACC-1"}: true,
		{Source: "testbroker", Account: "ACC-2"}: true,
	}

	t.Run("contribution is weighted by its invested fraction", func(t *testing.T) {
		// Setup: 310 contributed on the 16th of a 31-day month, invested
		// for 16 of 31 days.
		events := []model.CanonicalFlowEvent{
			testutil.NewFlowEvent().Contribution(310).On("2024-01-16").Record(),
		}

		// Execute
		result := svc.DeriveMonthlyFlows(events, nil, boundary)

		// Assert
		if !almostEqual(result.NetFlow["2024-01"], 310, returnTolerance) {
			t.Errorf("Expected net flow 310, got %f", result.NetFlow["2024-01"])
		}
		if !almostEqual(result.WeightedFlow["2024-01"], 160, returnTolerance) {
			t.Errorf("Expected weighted flow 160, got %f", result.WeightedFlow["2024-01"])
		}
	})

	t.Run("withdrawal carries its negative sign through", func(t *testing.T) {
		// Setup: 400 withdrawn on the 15th of a 29-day February.
		events := []model.CanonicalFlowEvent{
			testutil.NewFlowEvent().Withdrawal(400).On("2024-02-15").Record(),
		}

		// Execute
		result := svc.DeriveMonthlyFlows(events, nil, boundary)

		// Assert
		if !almostEqual(result.NetFlow["2024-02"], -400, returnTolerance) {
			t.Errorf("Expected net flow -400, got %f", result.NetFlow["2024-02"])
		}
		expectedWeighted := -400.0 * 15.0 / 29.0
		if !almostEqual(result.WeightedFlow["2024-02"], expectedWeighted, returnTolerance) {
			t.Errorf("Expected weighted flow %f, got %f", expectedWeighted, result.WeightedFlow["2024-02"])
		}
	})

	t.Run("in-boundary transfer contributes only to the internal sum", func(t *testing.T) {
		// Setup
		events := []model.CanonicalFlowEvent{
			testutil.NewFlowEvent().InternalTransfer(-500, "ACC-2").On("2024-03-10").Record(),
		}

		// Execute
		result := svc.DeriveMonthlyFlows(events, nil, boundary)

		// Assert
		if len(result.NetFlow) != 0 {
			t.Errorf("Expected no external flow for an in-boundary transfer, got %v", result.NetFlow)
		}
		if result.InternalTransferSum != -500 {
			t.Errorf("Expected internal transfer sum -500, got %f", result.InternalTransferSum)
		}
	})

	t.Run("transfer leaving the boundary is external", func(t *testing.T) {
		// Setup: the counterparty is not an aggregated account.
		events := []model.CanonicalFlowEvent{
			testutil.NewFlowEvent().InternalTransfer(-500, "OUTSIDE").On("2024-03-10").Record(),
		}

		// Execute
		result := svc.DeriveMonthlyFlows(events, nil, boundary)

		// Assert
		if result.NetFlow["2024-03"] != -500 {
			t.Errorf("Expected external flow -500, got %f", result.NetFlow["2024-03"])
		}
		if result.InternalTransferSum != 0 {
			t.Errorf("Expected no internal transfer sum, got %f", result.InternalTransferSum)
		}
	})

	t.Run("counterparty at another institution is external", func(t *testing.T) {
		// Setup: the counterparty name matches an aggregated account, but the
		// event belongs to a different institution. Counterparties resolve
		// within their own institution only.
		events := []model.CanonicalFlowEvent{
			testutil.NewFlowEvent().WithSource("otherbroker").InternalTransfer(-500, "ACC-2").On("2024-03-10").Record(),
		}

		// Execute
		result := svc.DeriveMonthlyFlows(events, nil, boundary)

		// Assert
		if result.NetFlow["2024-03"] != -500 {
			t.Errorf("Expected external flow -500, got %f", result.NetFlow["2024-03"])
		}
		if result.InternalTransferSum != 0 {
			t.Errorf("Expected no internal transfer sum, got %f", result.InternalTransferSum)
		}
	})

	t.Run("transfer with unknown counterparty is external", func(t *testing.T) {
		// Setup
		events := []model.CanonicalFlowEvent{
			testutil.NewFlowEvent().InternalTransfer(750, "").On("2024-03-10").Record(),
		}

		// Execute
		result := svc.DeriveMonthlyFlows(events, nil, boundary)

		// Assert
		if result.NetFlow["2024-03"] != 750 {
			t.Errorf("Expected external flow 750, got %f", result.NetFlow["2024-03"])
		}
	})

	t.Run("unconfirmed contribution is skipped", func(t *testing.T) {
		// Setup: the normalizer could not confirm the cash crossed the
		// boundary.
		event := testutil.NewFlowEvent().Contribution(1000).On("2024-01-05").Record()
		event.IsExternal = false

		// Execute
		result := svc.DeriveMonthlyFlows([]model.CanonicalFlowEvent{event}, nil, boundary)

		// Assert
		if len(result.NetFlow) != 0 {
			t.Errorf("Expected unconfirmed contribution to be skipped, got %v", result.NetFlow)
		}
	})

	t.Run("unknown classification is excluded with a warning", func(t *testing.T) {
		// Setup: a classification the deriver does not recognize.
		event := testutil.NewFlowEvent().Contribution(250).On("2024-05-03").Record()
		event.Classification = "fee_rebate"

		// Execute
		result := svc.DeriveMonthlyFlows([]model.CanonicalFlowEvent{event}, nil, boundary)

		// Assert
		if len(result.NetFlow) != 0 {
			t.Errorf("Expected no external flow for an unknown classification, got %v", result.NetFlow)
		}
		if result.ExcludedFlows != 1 {
			t.Errorf("Expected 1 excluded flow, got %d", result.ExcludedFlows)
		}
		if !hasWarningCategory(result.Warnings, model.WarningExcludedFlow) {
			t.Error("Expected an excluded_flow warning")
		}
	})

	t.Run("derived transfer flows are always external", func(t *testing.T) {
		// Setup: a flow fabricated by the timeline builder for a position
		// transfer.
		derived := []model.CanonicalFlowEvent{
			testutil.NewFlowEvent().Contribution(500).On("2024-04-01").Record(),
		}

		// Execute
		result := svc.DeriveMonthlyFlows(nil, derived, boundary)

		// Assert
		if result.NetFlow["2024-04"] != 500 {
			t.Errorf("Expected derived flow 500, got %f", result.NetFlow["2024-04"])
		}
		// Flow on day one is invested the full month.
		if !almostEqual(result.WeightedFlow["2024-04"], 500, returnTolerance) {
			t.Errorf("Expected weighted flow 500, got %f", result.WeightedFlow["2024-04"])
		}
	})
}
