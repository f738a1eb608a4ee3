package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux/internal/cmd/table"
	"github.com/agentstation/agoraflux/pkg/docs"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "Update Frequency", Header("update_frequency"))
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := table.Data{
		Headers: []string{"Key", "Name"},
		Rows:    [][]string{{"paris_budget", "Budget Paris Open Data"}},
	}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
	assert.Contains(t, buf.String(), "paris_budget")
	assert.Contains(t, buf.String(), "Budget Paris Open Data")
}

func TestTableFormatterFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"records": 3}))
	assert.JSONEq(t, `{"records": 3}`, buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, map[string]string{"status": "completed"}))
	assert.Equal(t, "status: completed\n", buf.String())
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(FormatMarkdown).Format(&buf, &docs.Bundle{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "# Data Documentation")

	err = NewFormatter(FormatMarkdown).Format(&buf, "not a bundle")
	assert.Error(t, err)
}
