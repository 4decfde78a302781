package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jdewinter/Realized-Performance-Backend/internal/marketdata"
	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
	"github.com/jdewinter/Realized-Performance-Backend/internal/repository"
)

// Scheduler runs the recurring benchmark refresh job. Benchmark closes and
// the risk-free yield are the only externally sourced inputs; everything
// else comes from imported canonical records, so one daily refresh keeps
// comparisons current without touching the reconstruction path.
type Scheduler struct {
	cron       *cron.Cron
	provider   marketdata.Provider
	priceRepo  *repository.PriceRepository
	benchmarks []string
}

// New creates a Scheduler refreshing the given benchmark tickers.
func New(provider marketdata.Provider, priceRepo *repository.PriceRepository, benchmarks []string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		provider:   provider,
		priceRepo:  priceRepo,
		benchmarks: benchmarks,
	}
}

// Start registers the refresh job on the given cron spec and starts the
// scheduler in the background.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.Refresh); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Refresh fetches and stores the monthly closing history for every
// configured benchmark plus the current risk-free yield. Failures are
// logged per series and do not abort the remaining refreshes; a stale
// benchmark degrades comparisons, not reconstructions.
func (s *Scheduler) Refresh() {
	end := time.Now().UTC()
	start := end.AddDate(-20, 0, 0)

	for _, ticker := range s.benchmarks {
		series, err := s.provider.MonthlyHistory(ticker, start, end)
		if err != nil {
			log.Printf("benchmark refresh failed for %s: %v", ticker, err)
			continue
		}
		stored := 0
		for _, q := range series.Quotes {
			err := s.priceRepo.UpsertBenchmarkPrice(model.BenchmarkPrice{
				Ticker: ticker,
				Date:   q.Date,
				Close:  q.Close,
			})
			if err != nil {
				log.Printf("benchmark store failed for %s %s: %v", ticker, q.Date.Format("2006-01-02"), err)
				continue
			}
			stored++
		}
		log.Printf("benchmark refresh stored %d closes for %s", stored, ticker)
	}

	quote, err := s.provider.LatestQuote(model.RiskFreeSeries)
	if err != nil {
		log.Printf("risk-free refresh failed: %v", err)
		return
	}
	// The yield index quotes in percentage points; store as a fraction.
	rate := quote.Close / 100
	if err := s.priceRepo.UpsertRiskFreeRate(model.RiskFreeSeries, rate, quote.Date); err != nil {
		log.Printf("risk-free store failed: %v", err)
		return
	}
	log.Printf("risk-free refresh stored %.4f as of %s", rate, quote.Date.Format("2006-01-02"))
}
