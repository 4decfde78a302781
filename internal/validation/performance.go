package validation

import (
	"strings"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/api/request"
	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

func ValidateRealizedPerformanceQuery(req request.RealizedPerformanceQuery) error {
	errors := make(map[string]string)

	// Required field
	if strings.TrimSpace(req.Source) == "" {
		errors["source"] = "source is required"
	}

	var start, end time.Time
	if req.StartDate != "" {
		parsed, err := ParseDate(req.StartDate)
		if err != nil {
			errors["start_date"] = "start_date must be formatted YYYY-MM-DD"
		} else {
			start = parsed
		}
	}
	if req.EndDate != "" {
		parsed, err := ParseDate(req.EndDate)
		if err != nil {
			errors["end_date"] = "end_date must be formatted YYYY-MM-DD"
		} else {
			end = parsed
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		errors["start_date"] = "start_date must not be after end_date"
	}

	if req.Segment != "" && req.Segment != model.SegmentEquity && req.Segment != model.SegmentOption {
		errors["segment"] = "segment must be one of: equity, option"
	}

	if req.Mode != "" && !model.NeutralizationMode(req.Mode).Valid() {
		errors["mode"] = "mode must be one of: drop_orphans, inject_open"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
