package periods

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// PlanPeriods partitions [start, end] into count contiguous monthly windows.
// The last window absorbs whatever remains up to end.
func PlanPeriods(year FiscalYear, count int) ([]Period, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", shared.ErrInvalidPeriodCount, count)
	}
	start := shared.DateOf(year.StartDate)
	end := shared.DateOf(year.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: fiscal year ends before it starts", shared.ErrInvalidInput)
	}
	if addMonths(start, count-1).After(end) {
		return nil, fmt.Errorf("%w: %d monthly periods do not fit %s..%s", shared.ErrInvalidPeriodCount, count, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	out := make([]Period, 0, count)
	for i := 0; i < count; i++ {
		pStart := addMonths(start, i)
		pEnd := end
		if i < count-1 {
			pEnd = addMonths(start, i+1).AddDate(0, 0, -1)
		}
		out = append(out, Period{
			OrgID:        year.OrgID,
			FiscalYearID: year.ID,
			Seq:          i + 1,
			Code:         fmt.Sprintf("%s-P%02d", year.Code, i+1),
			StartDate:    pStart,
			EndDate:      pEnd,
			Status:       PeriodStatusOpen,
		})
	}
	return out, nil
}

// addMonths moves t forward n months, clamping the day to the month length.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
