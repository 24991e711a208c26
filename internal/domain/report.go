// Package domain defines core types and errors for the report
// pull-and-relay workflow.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RequestID is the server-assigned handle correlating a submitted report
// generation request to its status entries. The service returns it as a JSON
// number; some deployments quote it, so unmarshalling accepts both forms.
type RequestID int64

// UnmarshalJSON accepts both `555` and `"555"`.
func (r *RequestID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse request id %s: %w", data, err)
	}
	*r = RequestID(n)
	return nil
}

// Status is the server-side state of a report generation request.
// The listing may carry values outside this set; they pass through untouched.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ReportRequest is the payload submitted to the report generation endpoint.
// Immutable once submitted: the submitter never modifies it, and callers must
// not reuse a mutated copy for a second submission.
type ReportRequest struct {
	ReportID int                 `json:"reportId"`
	Params   map[string][]string `json:"paramMap"`
	Timezone string              `json:"timezone"`
	Format   string              `json:"fileFormat"`
}

// StatusEntry is one snapshot row from the status listing endpoint.
type StatusEntry struct {
	RequestID        RequestID `json:"requestId"`
	Status           Status    `json:"status"`
	DownloadLocation string    `json:"downloadLocation,omitempty"`
}

// Artifact is a downloaded report file on local disk. Created by the
// retriever, consumed read-only by the relay, never mutated after creation.
// CreatedAt is also encoded in the filename (<prefix>_<YYYYMMDD_HHMMSS>.xlsx).
type Artifact struct {
	LocalPath string    `json:"local_path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeDetail extracts the download URL from a status detail response.
// The endpoint returns either a bare JSON string or an object whose "status"
// field carries the URL once generation completes; both forms normalize to
// the same string.
func NormalizeDetail(raw []byte) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("empty status detail response")
	}

	if trimmed[0] == '{' {
		var obj struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return "", fmt.Errorf("decode status detail object: %w", err)
		}
		return obj.Status, nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", fmt.Errorf("decode status detail string: %w", err)
	}
	return s, nil
}
