package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable_Basic(t *testing.T) {
	var buf bytes.Buffer
	columns := []string{"name", "report id"}
	rows := [][]string{
		{"inventory", "106899"},
		{"returns", "107071"},
	}

	PrintTable(&buf, columns, rows)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 3, "expected header + 2 data rows")
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "REPORT ID")
	assert.Contains(t, lines[1], "inventory")
	assert.Contains(t, lines[1], "106899")
	assert.Contains(t, lines[2], "returns")
}

func TestPrintTable_EmptyColumns(t *testing.T) {
	var buf bytes.Buffer

	PrintTable(&buf, []string{}, [][]string{{"a"}})

	assert.Empty(t, buf.String(), "empty columns should produce no output")
}

func TestPrintTable_EmptyRows(t *testing.T) {
	var buf bytes.Buffer

	PrintTable(&buf, []string{"id", "status"}, nil)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 1, "only the header line should be present")
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[0], "STATUS")
}

func TestPrintTable_ColumnAlignment(t *testing.T) {
	var buf bytes.Buffer
	columns := []string{"a", "b"}
	rows := [][]string{{"wide-cell", "2"}}

	PrintTable(&buf, columns, rows)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 2)
	// Column width follows the widest cell, separated by two spaces.
	assert.Equal(t, "A          B", lines[0])
	assert.Equal(t, "wide-cell  2", lines[1])
}

func TestPrintTable_ShortRow(t *testing.T) {
	var buf bytes.Buffer

	PrintTable(&buf, []string{"a", "b"}, [][]string{{"only"}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 2)
	assert.Equal(t, "only", lines[1], "missing cells render empty without panicking")
}

func TestPrintJSON_Basic(t *testing.T) {
	var buf bytes.Buffer

	err := PrintJSON(&buf, map[string]string{"hello": "world"})
	require.NoError(t, err)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "world", parsed["hello"])
	assert.Contains(t, buf.String(), "\n  ", "output should be indented")
}

func TestPrintJSON_NilInput(t *testing.T) {
	var buf bytes.Buffer

	err := PrintJSON(&buf, nil)
	require.NoError(t, err)

	assert.Equal(t, "null\n", buf.String())
}

func TestPrintDetail_SortedKeys(t *testing.T) {
	var buf bytes.Buffer
	fields := map[string]interface{}{
		"zebra":  "z",
		"apple":  "a",
		"mango":  "m",
		"banana": "b",
	}

	PrintDetail(&buf, fields)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 4)
	keys := make([]string, len(lines))
	for i, line := range lines {
		keys[i] = strings.SplitN(line, ":", 2)[0]
	}
	assert.Equal(t, []string{"apple", "banana", "mango", "zebra"}, keys)
}

func TestPrintDetail_Padding(t *testing.T) {
	var buf bytes.Buffer
	fields := map[string]interface{}{
		"id":          "123",
		"description": "some text",
	}

	PrintDetail(&buf, fields)

	// maxKeyLen is len("description"); "id" gets 9 spaces of padding.
	assert.Contains(t, buf.String(), "id:"+strings.Repeat(" ", 9)+"  123")
}

func TestPrintDetail_ValueRendering(t *testing.T) {
	var buf bytes.Buffer
	fields := map[string]interface{}{
		"none":  nil,
		"obj":   map[string]interface{}{"k": "v"},
		"list":  []interface{}{"a", "b"},
		"count": 42,
	}

	PrintDetail(&buf, fields)
	output := buf.String()

	assert.NotContains(t, output, "<nil>")
	assert.Contains(t, output, `{"k":"v"}`)
	assert.Contains(t, output, `["a","b"]`)
	assert.Contains(t, output, "count:  42")
}
