package report

import (
	"time"

	"omnirelay/internal/domain"
)

// BuildRequest materialises the submission payload for one pull. Params are
// deep-copied so the returned request is never aliased to catalog state; a
// submitted request must stay immutable. now feeds window computation and
// should be in the account's local timezone.
func (d Definition) BuildRequest(now time.Time) domain.ReportRequest {
	params := make(map[string][]string, len(d.Params)+2)
	for k, v := range d.Params {
		params[k] = append([]string(nil), v...)
	}

	if d.Window == WindowReturnsMonthToDate {
		from, to := returnsMonthToDate(now)
		params["returnCreatedFrom"] = []string{from}
		params["returnCreatedTo"] = []string{to}
	}

	return domain.ReportRequest{
		ReportID: d.ReportID,
		Params:   params,
		Timezone: d.Timezone,
		Format:   d.Format,
	}
}

// returnsMonthToDate computes the returns creation window for the calendar
// month containing now: from the last day of the previous month at
// 18:30:00 UTC (00:00 IST on the 1st) through now's date at 18:29:59 UTC
// (23:59:59 IST). The dates are calendar dates in now's location; only the
// suffix expresses the UTC offset.
func returnsMonthToDate(now time.Time) (from, to string) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastOfPrev := firstOfMonth.AddDate(0, 0, -1)
	from = lastOfPrev.Format("2006-01-02") + "T18:30:00.000Z"
	to = now.Format("2006-01-02") + "T18:29:59.000Z"
	return from, to
}
