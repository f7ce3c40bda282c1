package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efscli/pkg/contracts/domain"
)

func sampleDataset() *domain.Dataset {
	return &domain.Dataset{
		Headers: []string{"工单号", "车间", "区域", "等待时间h"},
		Rows: []domain.Row{
			{"工单号": "WO-1", "车间": "一车间", "区域": "A区", "等待时间h": "1.00"},
			{"工单号": "WO-2", "车间": "二车间", "区域": "", "等待时间h": "2.50"},
		},
	}
}

func TestCSVWriter_WriteDataset(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVWriter(nil).WriteDataset(&buf, sampleDataset())
	require.NoError(t, err)

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, utf8BOM), "output must start with UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"工单号", "车间", "区域", "等待时间h"}, records[0])
	assert.Equal(t, []string{"WO-1", "一车间", "A区", "1.00"}, records[1])
	assert.Equal(t, []string{"WO-2", "二车间", "", "2.50"}, records[2])
}

func TestCSVWriter_MissingColumnsRenderEmpty(t *testing.T) {
	data := &domain.Dataset{
		Headers: []string{"工单号", "维修人分类"},
		Rows:    []domain.Row{{"工单号": "WO-1"}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(nil).WriteDataset(&buf, data))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "WO-1,", lines[1])
}

func TestCSVWriter_NilDataset(t *testing.T) {
	err := NewCSVWriter(nil).WriteDataset(&bytes.Buffer{}, nil)
	assert.Error(t, err)
}

func TestCSVWriter_WriteDatasetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "cleaned.csv")
	require.NoError(t, NewCSVWriter(nil).WriteDatasetFile(path, sampleDataset()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, utf8BOM))
	assert.Contains(t, string(content), "一车间")
}
