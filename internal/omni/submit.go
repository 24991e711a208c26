package omni

import (
	"context"
	"encoding/json"
	"net/http"

	"omnirelay/internal/domain"
)

// Submit sends one report generation request and resolves the request id the
// server assigned to it. The happy path reads the id from the submission
// response; an empty or id-less 2xx body falls back to adopting the newest
// status-listing entry. The fallback is best effort only: another submitter
// racing this one can surface its own request at the listing head.
func (c *Client) Submit(ctx context.Context, req domain.ReportRequest) (domain.RequestID, error) {
	status, body, err := c.do(ctx, http.MethodPost, generatePath, req)
	if err != nil {
		return 0, err
	}
	if !submitAccepted(status) {
		return 0, domain.ErrResolution("report %d submission rejected with status %d", req.ReportID, status)
	}

	if len(body) > 0 {
		var out struct {
			ID domain.RequestID `json:"id"`
		}
		// A non-JSON or id-less body is not fatal here; the listing
		// fallback below gets a chance first.
		if err := json.Unmarshal(body, &out); err == nil && out.ID != 0 {
			c.logger.Info("report requested", "report_id", req.ReportID, "request_id", out.ID)
			return out.ID, nil
		}
	}

	id, err := c.latestRequestID(ctx)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, domain.ErrResolution("no request id in submit response or status listing for report %d", req.ReportID)
	}
	c.logger.Warn("submit response carried no id, adopted listing head",
		"report_id", req.ReportID, "request_id", id)
	return id, nil
}

func submitAccepted(status int) bool {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return true
	}
	return false
}

func (c *Client) latestRequestID(ctx context.Context) (domain.RequestID, error) {
	entries, err := c.Listing(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[0].RequestID, nil
}
