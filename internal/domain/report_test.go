package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    RequestID
		wantErr bool
	}{
		{
			name: "number",
			raw:  `555`,
			want: 555,
		},
		{
			name: "quoted_number",
			raw:  `"555"`,
			want: 555,
		},
		{
			name: "large_number",
			raw:  `9223372036854775807`,
			want: 9223372036854775807,
		},
		{
			name:    "non_numeric",
			raw:     `"abc"`,
			wantErr: true,
		},
		{
			name:    "empty_string",
			raw:     `""`,
			wantErr: true,
		},
		{
			name:    "float",
			raw:     `5.5`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id RequestID
			err := json.Unmarshal([]byte(tt.raw), &id)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, id)
			}
		})
	}
}

func TestStatusEntryUnmarshal(t *testing.T) {
	raw := `{"requestId": "789", "status": "COMPLETED", "downloadLocation": "https://cdn.example.com/report.xlsx"}`

	var entry StatusEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Equal(t, RequestID(789), entry.RequestID)
	assert.Equal(t, StatusCompleted, entry.Status)
	assert.Equal(t, "https://cdn.example.com/report.xlsx", entry.DownloadLocation)
}

func TestStatusEntryUnknownStatusPassesThrough(t *testing.T) {
	var entry StatusEntry
	require.NoError(t, json.Unmarshal([]byte(`{"requestId": 1, "status": "QUEUED"}`), &entry))
	assert.Equal(t, Status("QUEUED"), entry.Status)
}

func TestNormalizeDetail(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "object_with_status_url",
			raw:  `{"status": "https://cdn.example.com/r/555.xlsx"}`,
			want: "https://cdn.example.com/r/555.xlsx",
		},
		{
			name: "bare_string_url",
			raw:  `"https://cdn.example.com/r/555.xlsx"`,
			want: "https://cdn.example.com/r/555.xlsx",
		},
		{
			name: "object_still_processing",
			raw:  `{"status": "PROCESSING"}`,
			want: "PROCESSING",
		},
		{
			name: "object_missing_status_field",
			raw:  `{"other": "value"}`,
			want: "",
		},
		{
			name: "leading_whitespace",
			raw:  "\n  {\"status\": \"COMPLETED\"}",
			want: "COMPLETED",
		},
		{
			name:    "empty_body",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "whitespace_only",
			raw:     "   \n",
			wantErr: true,
		},
		{
			name:    "malformed_object",
			raw:     `{"status": `,
			wantErr: true,
		},
		{
			name:    "bare_word",
			raw:     `COMPLETED`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDetail([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeDetailBothFormsAgree(t *testing.T) {
	fromObject, err := NormalizeDetail([]byte(`{"status": "https://x/y"}`))
	require.NoError(t, err)

	fromString, err := NormalizeDetail([]byte(`"https://x/y"`))
	require.NoError(t, err)

	assert.Equal(t, fromObject, fromString)
}
