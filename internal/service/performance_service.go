package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jdewinter/Realized-Performance-Backend/internal/apperrors"
	"github.com/jdewinter/Realized-Performance-Backend/internal/config"
	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
	"github.com/jdewinter/Realized-Performance-Backend/internal/repository"
)

// AlgorithmVersion identifies the reconstruction algorithm. It is stamped on
// every result and is part of the cache key, so a logic change invalidates
// previously cached results instead of serving stale numbers.
const AlgorithmVersion = "1.4.0"

// requestDateFormat is the layout for request date bounds.
const requestDateFormat = "2006-01-02"

// PerformanceService orchestrates one reconstruction request end to end:
// load the full canonical history, run the per-scope pipelines, combine,
// compute returns, compare against a benchmark, and assemble the immutable
// result. Date-range filtering is applied to the OUTPUT only; the
// computation always runs on full history so that position state carried
// across the range boundary stays correct.
type PerformanceService struct {
	transactionRepo *repository.TransactionRepository
	flowRepo        *repository.FlowRepository
	priceRepo       *repository.PriceRepository
	snapshotRepo    *repository.SnapshotRepository

	aggregateService *AggregateService
	returnService    *ReturnService
	benchmarkService *BenchmarkService

	engineConfig config.EngineConfig
	resultCache  *cache.Cache
}

// NewPerformanceService creates a new PerformanceService with the provided
// repositories and pipeline services.
func NewPerformanceService(
	transactionRepo *repository.TransactionRepository,
	flowRepo *repository.FlowRepository,
	priceRepo *repository.PriceRepository,
	snapshotRepo *repository.SnapshotRepository,
	aggregateService *AggregateService,
	returnService *ReturnService,
	benchmarkService *BenchmarkService,
	engineConfig config.EngineConfig,
) *PerformanceService {
	return &PerformanceService{
		transactionRepo:  transactionRepo,
		flowRepo:         flowRepo,
		priceRepo:        priceRepo,
		snapshotRepo:     snapshotRepo,
		aggregateService: aggregateService,
		returnService:    returnService,
		benchmarkService: benchmarkService,
		engineConfig:     engineConfig,
		resultCache:      cache.New(engineConfig.CacheTTL, 2*engineConfig.CacheTTL),
	}
}

// PerformanceRequest is one validated reconstruction request. The zero
// Account means "aggregate every account of the institution"; the zero
// Benchmark means no benchmark comparison.
type PerformanceRequest struct {
	Source    string
	Account   string
	StartDate string // inclusive, YYYY-MM-DD, optional
	EndDate   string // inclusive, YYYY-MM-DD, optional
	Segment   string // optional instrument segment filter
	Benchmark string // optional benchmark ticker
	Mode      string // optional neutralization mode override
}

// GetRealizedPerformance reconstructs the realized monthly return series for
// the requested scope.
func (s *PerformanceService) GetRealizedPerformance(ctx context.Context, req PerformanceRequest) (*model.RealizedPerformanceResult, error) {
	startMonth, endBound, err := s.parseDateRange(req)
	if err != nil {
		return nil, err
	}

	mode := model.NeutralizationMode(req.Mode)
	if req.Mode == "" {
		mode = model.NeutralizationMode(s.engineConfig.NeutralizationMode)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidNeutralizationMode, req.Mode)
	}

	if req.Segment != "" && req.Segment != model.SegmentEquity && req.Segment != model.SegmentOption {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidSegment, req.Segment)
	}

	cacheKey := strings.Join([]string{
		req.Source, req.Account, req.StartDate, req.EndDate,
		req.Segment, req.Benchmark, string(mode), AlgorithmVersion,
	}, "|")
	if cached, found := s.resultCache.Get(cacheKey); found {
		return cached.(*model.RealizedPerformanceResult), nil
	}

	transactionsByScope, err := s.transactionRepo.GetTransactions(req.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	flowsByScope, err := s.flowRepo.GetFlowEvents(req.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveFlows, err)
	}
	snapshotsByScope, err := s.snapshotRepo.GetSnapshots(req.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveSnapshots, err)
	}

	if len(transactionsByScope) == 0 && len(flowsByScope) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSourceNotFound, req.Source)
	}

	scopes, boundary, err := s.resolveScopes(req, transactionsByScope, flowsByScope)
	if err != nil {
		return nil, err
	}

	inputs, symbols := s.buildScopeInputs(req.Segment, scopes, transactionsByScope, flowsByScope, snapshotsByScope)

	totalRecords := 0
	for _, in := range inputs {
		totalRecords += len(in.Transactions) + len(in.Flows) + len(in.Snapshots)
	}
	if totalRecords == 0 {
		return nil, fmt.Errorf("%w: source %s", apperrors.ErrNoRecords, req.Source)
	}

	prices, err := s.priceRepo.GetPrices(symbols)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrievePrices, err)
	}

	opts := TimelineOptions{
		PerSymbolInception: s.engineConfig.PerSymbolInceptionEnabled(req.Source),
		Mode:               mode,
	}

	endMonth := latestActivityMonth(inputs, prices)
	outputs, err := s.aggregateService.RunScopes(ctx, inputs, prices, endMonth, opts, boundary)
	if err != nil {
		return nil, err
	}

	series, diag, warnings := s.aggregateService.Combine(outputs)

	var priced, required int
	for _, out := range outputs {
		priced += out.PricedPoints
		required += out.RequiredPoints
	}
	if required > 0 && priced == 0 {
		return nil, fmt.Errorf("%w: source %s", apperrors.ErrNoPriceHistory, req.Source)
	}

	returns := s.returnService.ComputeMonthlyReturns(series, isLongOnly(inputs))
	diag.ClampedReturns = returns.ClampedReturns
	diag.ExtremeReturns = returns.ExtremeReturns
	warnings = append(warnings, returns.Warnings...)

	if diag.DataCoverage < s.engineConfig.LowCoverageThreshold {
		warnings = append(warnings, newWarning(
			model.WarningLowDataCoverage, time.Time{}, "", diag.DataCoverage,
			fmt.Sprintf("only %.0f%% of held symbol-months could be priced", diag.DataCoverage*100),
		))
	}

	monthly := filterMonths(returns.Monthly, startMonth, endBound)
	for i := range monthly {
		monthly[i].NAV = math.Round(monthly[i].NAV*RoundingPrecision) / RoundingPrecision
		monthly[i].NetFlow = math.Round(monthly[i].NetFlow*RoundingPrecision) / RoundingPrecision
	}

	result := &model.RealizedPerformanceResult{
		Source:           req.Source,
		Account:          req.Account,
		Scopes:           scopeLabels(scopes),
		Segment:          req.Segment,
		Monthly:          monthly,
		TotalReturn:      ChainLinked(monthly),
		Diagnostics:      diag,
		AlgorithmVersion: AlgorithmVersion,
		ComputedAt:       time.Now().UTC(),
	}

	if req.Benchmark != "" {
		comparison, benchWarnings, err := s.compareBenchmark(req.Benchmark, monthly)
		if err != nil {
			return nil, err
		}
		result.Benchmark = comparison
		warnings = append(warnings, benchWarnings...)
	}
	result.Warnings = warnings

	s.resultCache.Set(cacheKey, result, cache.DefaultExpiration)
	return result, nil
}

// GetScopes lists the institutions with canonical records and their account
// scopes, for clients discovering what can be requested.
func (s *PerformanceService) GetScopes() (map[string][]string, error) {
	sources, err := s.transactionRepo.GetSources()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTransactions, err)
	}

	scopes := make(map[string][]string, len(sources))
	for _, source := range sources {
		accounts, err := s.transactionRepo.GetAccounts(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTransactions, err)
		}
		scopes[source] = accounts
	}
	return scopes, nil
}

func (s *PerformanceService) parseDateRange(req PerformanceRequest) (startMonth, endMonth string, err error) {
	var start, end time.Time
	if req.StartDate != "" {
		start, err = time.Parse(requestDateFormat, req.StartDate)
		if err != nil {
			return "", "", fmt.Errorf("%w: start_date %q", apperrors.ErrInvalidDateRange, req.StartDate)
		}
		startMonth = model.MonthKey(start)
	}
	if req.EndDate != "" {
		end, err = time.Parse(requestDateFormat, req.EndDate)
		if err != nil {
			return "", "", fmt.Errorf("%w: end_date %q", apperrors.ErrInvalidDateRange, req.EndDate)
		}
		endMonth = model.MonthKey(end)
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return "", "", fmt.Errorf("%w: %s after %s", apperrors.ErrInvalidDateRange, req.StartDate, req.EndDate)
	}
	return startMonth, endMonth, nil
}

// resolveScopes determines which scopes participate and the aggregation
// boundary used for internal-transfer classification. Scopes are keyed by
// (source, account): under an all-institution request, equally named accounts
// at different institutions remain separate scopes and are never co-mingled.
// The boundary always covers every discovered scope of the retrieved
// institutions: a request narrowed to one account still classifies its
// transfers against every sibling account.
func (s *PerformanceService) resolveScopes(
	req PerformanceRequest,
	transactionsByScope map[model.ScopeKey][]model.CanonicalTransaction,
	flowsByScope map[model.ScopeKey][]model.CanonicalFlowEvent,
) ([]model.ScopeKey, map[model.ScopeKey]bool, error) {

	boundary := make(map[model.ScopeKey]bool)
	for key := range transactionsByScope {
		boundary[key] = true
	}
	for key := range flowsByScope {
		boundary[key] = true
	}

	scopes := make([]model.ScopeKey, 0, len(boundary))
	for key := range boundary {
		if req.Account != "" && key.Account != req.Account {
			continue
		}
		scopes = append(scopes, key)
	}
	if req.Account != "" && len(scopes) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, req.Account)
	}

	sort.Slice(scopes, func(i, j int) bool {
		if scopes[i].Source != scopes[j].Source {
			return scopes[i].Source < scopes[j].Source
		}
		return scopes[i].Account < scopes[j].Account
	})
	return scopes, boundary, nil
}

// scopeLabels renders scope keys as the "source/account" strings reported on
// the result.
func scopeLabels(scopes []model.ScopeKey) []string {
	labels := make([]string, 0, len(scopes))
	for _, key := range scopes {
		labels = append(labels, key.String())
	}
	return labels
}

// buildScopeInputs assembles the in-memory record set per scope, applying
// the segment filter. A segment view keeps only the transactions and
// snapshots of that segment, and drops raw account-level flow events
// entirely: cash in an account is not attributable to one instrument class,
// so only transfer flows derived from the filtered transactions survive.
func (s *PerformanceService) buildScopeInputs(
	segment string,
	scopes []model.ScopeKey,
	transactionsByScope map[model.ScopeKey][]model.CanonicalTransaction,
	flowsByScope map[model.ScopeKey][]model.CanonicalFlowEvent,
	snapshotsByScope map[model.ScopeKey][]model.PositionSnapshot,
) ([]ScopeInput, []string) {

	symbolSet := make(map[string]bool)
	inputs := make([]ScopeInput, 0, len(scopes))

	for _, key := range scopes {
		input := ScopeInput{Scope: key}

		for _, t := range transactionsByScope[key] {
			if segment != "" && t.Segment != segment {
				continue
			}
			input.Transactions = append(input.Transactions, t)
			symbolSet[t.Symbol] = true
		}
		for _, snap := range snapshotsByScope[key] {
			if segment != "" && snap.Segment != segment {
				continue
			}
			input.Snapshots = append(input.Snapshots, snap)
			symbolSet[snap.Symbol] = true
		}
		if segment == "" {
			input.Flows = flowsByScope[key]
		}

		inputs = append(inputs, input)
	}

	symbols := make([]string, 0, len(symbolSet))
	for symbol := range symbolSet {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return inputs, symbols
}

func (s *PerformanceService) compareBenchmark(ticker string, monthly []model.MonthlyReturn) (*model.BenchmarkComparison, []model.Warning, error) {
	closes, err := s.priceRepo.GetBenchmarkPrices(ticker)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveBenchmark, err)
	}
	if len(closes) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrBenchmarkNotFound, ticker)
	}

	var warnings []model.Warning
	riskFree, err := s.priceRepo.GetRiskFreeRate(model.RiskFreeSeries)
	if err != nil {
		riskFree = s.engineConfig.RiskFreeFallbackRate
		warnings = append(warnings, newWarning(
			model.WarningRiskFreeUnavailable, time.Time{}, "", riskFree,
			fmt.Sprintf("risk-free rate unavailable, using fallback %.2f%%", riskFree*100),
		))
	}

	comparison, err := s.benchmarkService.Compare(ticker, closes, monthly, riskFree)
	if err != nil {
		return nil, nil, err
	}
	return comparison, warnings, nil
}

// latestActivityMonth returns the most recent month with any record across
// all scopes, including price observations, so held positions keep being
// valued after the final trade. Bounding the calendar by records instead of
// the wall clock keeps a result stable for a fixed data set.
func latestActivityMonth(inputs []ScopeInput, prices map[string][]model.SymbolPrice) string {
	var latest time.Time
	for _, in := range inputs {
		for _, t := range in.Transactions {
			if t.Timestamp.After(latest) {
				latest = t.Timestamp
			}
		}
		for _, f := range in.Flows {
			if f.Timestamp.After(latest) {
				latest = f.Timestamp
			}
		}
		for _, snap := range in.Snapshots {
			if snap.AsOf.After(latest) {
				latest = snap.AsOf
			}
		}
	}
	for _, series := range prices {
		if len(series) > 0 {
			if last := series[len(series)-1].Date; last.After(latest) {
				latest = last
			}
		}
	}
	if latest.IsZero() {
		return ""
	}
	return model.MonthKey(latest)
}

// isLongOnly reports whether the request touches only long positions. The
// -100% floor is a long-only invariant and is not applied to scopes with
// short exposure.
func isLongOnly(inputs []ScopeInput) bool {
	for _, in := range inputs {
		for _, t := range in.Transactions {
			if t.Direction == model.DirectionShort {
				return false
			}
		}
		for _, snap := range in.Snapshots {
			if snap.Direction == model.DirectionShort {
				return false
			}
		}
	}
	return true
}

// filterMonths restricts the computed series to the requested window.
// Empty bounds leave that side open.
func filterMonths(monthly []model.MonthlyReturn, startMonth, endMonth string) []model.MonthlyReturn {
	out := make([]model.MonthlyReturn, 0, len(monthly))
	for _, m := range monthly {
		if startMonth != "" && m.Month < startMonth {
			continue
		}
		if endMonth != "" && m.Month > endMonth {
			continue
		}
		out = append(out, m)
	}
	return out
}
