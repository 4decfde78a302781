package service

import (
	"math"
	"sort"

	"github.com/jdewinter/Realized-Performance-Backend/internal/apperrors"
	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// BenchmarkService aligns a scope's monthly return series against a
// benchmark index and computes comparison statistics. Alignment happens on
// common months only: the scope and the index each contribute a return for a
// month, or the month is skipped on both sides.
type BenchmarkService struct {
	minOverlap int
}

// NewBenchmarkService creates a BenchmarkService requiring at least
// minOverlap aligned months before any statistic is computed.
func NewBenchmarkService(minOverlap int) *BenchmarkService {
	return &BenchmarkService{minOverlap: minOverlap}
}

// Compare computes the comparison statistics of the scope's monthly returns
// against the benchmark's closing series. riskFreeRate is annualized.
// Returns ErrInsufficientBenchmarkOverlap when fewer than the configured
// minimum number of months align; statistics on a shorter overlap would be
// noise presented as analysis.
func (s *BenchmarkService) Compare(
	ticker string,
	closes []model.BenchmarkPrice,
	monthly []model.MonthlyReturn,
	riskFreeRate float64,
) (*model.BenchmarkComparison, error) {

	benchReturns := monthlyBenchmarkReturns(closes)

	var scope, bench []float64
	for _, m := range monthly {
		if br, ok := benchReturns[m.Month]; ok {
			scope = append(scope, m.Return)
			bench = append(bench, br)
		}
	}

	n := len(scope)
	if n < s.minOverlap {
		return nil, apperrors.ErrInsufficientBenchmarkOverlap
	}

	scopeTotal := chainLink(scope)
	benchTotal := chainLink(bench)
	scopeAnnualized := annualize(scopeTotal, n)
	benchAnnualized := annualize(benchTotal, n)

	volatility := stdev(scope) * math.Sqrt(12)

	sharpe := 0.0
	if volatility > 0 {
		sharpe = (scopeAnnualized - riskFreeRate) / volatility
	}

	beta := 0.0
	if bv := variance(bench); bv > 0 {
		beta = covariance(scope, bench) / bv
	}
	// CAPM alpha on annualized terms: the return in excess of what beta
	// exposure to the benchmark would have earned.
	alpha := scopeAnnualized - (riskFreeRate + beta*(benchAnnualized-riskFreeRate))

	return &model.BenchmarkComparison{
		Ticker:                    ticker,
		AlignedPeriods:            n,
		TotalReturn:               scopeTotal,
		AnnualizedReturn:          scopeAnnualized,
		Volatility:                volatility,
		SharpeRatio:               sharpe,
		MaxDrawdown:               maxDrawdown(scope),
		Alpha:                     alpha,
		Beta:                      beta,
		BenchmarkTotalReturn:      benchTotal,
		BenchmarkAnnualizedReturn: benchAnnualized,
		RiskFreeRate:              riskFreeRate,
	}, nil
}

// monthlyBenchmarkReturns reduces a closing-price series to one return per
// month, keyed by month. The last observed close inside a month stands for
// its month end; the first month has no prior close and produces no return.
func monthlyBenchmarkReturns(closes []model.BenchmarkPrice) map[string]float64 {
	lastClose := make(map[string]float64)
	for _, c := range closes {
		if c.Close > 0 {
			lastClose[model.MonthKey(c.Date)] = c.Close
		}
	}

	months := make([]string, 0, len(lastClose))
	for m := range lastClose {
		months = append(months, m)
	}
	sort.Strings(months)

	returns := make(map[string]float64, len(months))
	for i := 1; i < len(months); i++ {
		prev := lastClose[months[i-1]]
		returns[months[i]] = lastClose[months[i]]/prev - 1
	}
	return returns
}

func chainLink(returns []float64) float64 {
	total := 1.0
	for _, r := range returns {
		total *= 1 + r
	}
	return total - 1
}

func annualize(total float64, months int) float64 {
	if months == 0 || total <= -1 {
		return total
	}
	return math.Pow(1+total, 12/float64(months)) - 1
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the sample variance; it needs at least two observations.
func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return sum / float64(len(xs)-1)
}

func stdev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

func covariance(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var sum float64
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(len(xs)-1)
}

// maxDrawdown is the deepest peak-to-trough decline of the chain-linked
// cumulative series, as a negative fraction (0 when the series never falls).
func maxDrawdown(returns []float64) float64 {
	cum, peak, worst := 1.0, 1.0, 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if dd := cum/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}
