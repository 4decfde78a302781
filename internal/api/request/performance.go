package request

import "net/http"

// RealizedPerformanceQuery represents the query parameters of a realized
// performance request. All fields except Source are optional.
type RealizedPerformanceQuery struct {
	Source    string `json:"source"`
	Account   string `json:"account,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Segment   string `json:"segment,omitempty"`
	Benchmark string `json:"benchmark,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

// ParseRealizedPerformanceQuery extracts the realized performance query
// parameters from the request URL.
func ParseRealizedPerformanceQuery(r *http.Request) RealizedPerformanceQuery {
	q := r.URL.Query()
	return RealizedPerformanceQuery{
		Source:    q.Get("source"),
		Account:   q.Get("account"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Segment:   q.Get("segment"),
		Benchmark: q.Get("benchmark"),
		Mode:      q.Get("mode"),
	}
}
