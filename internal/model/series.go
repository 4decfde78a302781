package model

import "time"

// MonthKeyFormat is the layout for month keys. Keys in this layout sort
// chronologically as plain strings.
const MonthKeyFormat = "2006-01"

// MonthKey returns the month key for a point in time, in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyFormat)
}

// MonthEnd returns the last instant of the month identified by key.
// Returns the zero time if the key does not parse.
func MonthEnd(key string) time.Time {
	t, err := time.Parse(MonthKeyFormat, key)
	if err != nil {
		return time.Time{}
	}
	return t.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// MonthRange returns every month key from first to last inclusive.
// Returns nil if either key does not parse or last precedes first.
func MonthRange(first, last string) []string {
	start, err := time.Parse(MonthKeyFormat, first)
	if err != nil {
		return nil
	}
	end, err := time.Parse(MonthKeyFormat, last)
	if err != nil || end.Before(start) {
		return nil
	}
	var months []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(MonthKeyFormat))
	}
	return months
}

// MonthlySeries holds the per-month NAV, net external flow, and
// time-weighted external flow for one account scope. Months is sorted
// ascending and is the authoritative ordering; the maps are keyed by the
// same month keys.
type MonthlySeries struct {
	Account      string             `json:"account"`
	Months       []string           `json:"months"`
	NAV          map[string]float64 `json:"nav"`
	NetFlow      map[string]float64 `json:"netFlow"`
	WeightedFlow map[string]float64 `json:"weightedFlow"`
}

// NewMonthlySeries returns an empty series for the given account scope.
func NewMonthlySeries(account string) *MonthlySeries {
	return &MonthlySeries{
		Account:      account,
		NAV:          make(map[string]float64),
		NetFlow:      make(map[string]float64),
		WeightedFlow: make(map[string]float64),
	}
}

// Reindex returns a copy of the series laid out on the given month calendar.
// NAV is forward-filled from the last observed month (zero before the first
// observation); flows are zero-filled. A scope contributing no data for a
// month contributes zero, never a missing value that would break summation.
func (s *MonthlySeries) Reindex(months []string) *MonthlySeries {
	out := NewMonthlySeries(s.Account)
	out.Months = append(out.Months, months...)

	var lastNAV float64
	for _, m := range months {
		if v, ok := s.NAV[m]; ok {
			lastNAV = v
		}
		out.NAV[m] = lastNAV
		out.NetFlow[m] = s.NetFlow[m]
		out.WeightedFlow[m] = s.WeightedFlow[m]
	}
	return out
}

// AggregateMonthlySeries is the element-wise sum of per-scope series on a
// shared month calendar. It is always a sum, never an average: summed NAV
// and flows are the only mathematically valid aggregation primitives.
type AggregateMonthlySeries struct {
	MonthlySeries
	Scopes []string `json:"scopes"`
}

// SumSeries reindexes every series onto the union of their month calendars
// and sums them element-wise. Returns an empty aggregate when given no input.
func SumSeries(series []*MonthlySeries) *AggregateMonthlySeries {
	agg := &AggregateMonthlySeries{MonthlySeries: *NewMonthlySeries("")}
	if len(series) == 0 {
		return agg
	}

	first, last := "", ""
	for _, s := range series {
		if len(s.Months) == 0 {
			continue
		}
		if first == "" || s.Months[0] < first {
			first = s.Months[0]
		}
		if last == "" || s.Months[len(s.Months)-1] > last {
			last = s.Months[len(s.Months)-1]
		}
	}
	if first == "" {
		return agg
	}

	agg.Months = MonthRange(first, last)
	for _, s := range series {
		agg.Scopes = append(agg.Scopes, s.Account)
		r := s.Reindex(agg.Months)
		for _, m := range agg.Months {
			agg.NAV[m] += r.NAV[m]
			agg.NetFlow[m] += r.NetFlow[m]
			agg.WeightedFlow[m] += r.WeightedFlow[m]
		}
	}
	return agg
}
