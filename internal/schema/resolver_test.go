package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	resolver := NewResolver(nil)

	tests := []struct {
		name        string
		headers     []string
		wantMapped  map[Field]string
		wantMissing []string
	}{
		{
			name: "all required columns present",
			headers: []string{
				"工单号", "车间", "维修人", "报修时间", "维修开始时间", "维修结束时间",
			},
			wantMapped: map[Field]string{
				FieldWorkOrder: "工单号",
				FieldWorkshop:  "车间",
				FieldEndTime:   "维修结束时间",
			},
		},
		{
			name: "headers trimmed before matching",
			headers: []string{
				"  工单号 ", "车间", "维修人", " 报修时间", "维修开始时间", "维修结束时间 ",
			},
			wantMapped: map[Field]string{
				FieldWorkOrder:  "工单号",
				FieldReportTime: "报修时间",
			},
		},
		{
			name:    "missing required columns recorded as empty",
			headers: []string{"工单号", "车间", "维修人"},
			wantMapped: map[Field]string{
				FieldWorkOrder: "工单号",
			},
			wantMissing: []string{"报修时间", "维修开始时间", "维修结束时间"},
		},
		{
			name:        "empty header row",
			headers:     nil,
			wantMissing: []string{"工单号", "车间", "维修人", "报修时间", "维修开始时间", "维修结束时间"},
		},
		{
			name: "optional columns resolve when present",
			headers: []string{
				"工单号", "车间", "维修人", "报修时间", "维修开始时间", "维修结束时间",
				"区域", "等待时间h",
			},
			wantMapped: map[Field]string{
				FieldArea:     "区域",
				FieldWaitTime: "等待时间h",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping := resolver.Resolve(tt.headers)

			for f, want := range tt.wantMapped {
				assert.Equal(t, want, mapping[f], "field %s", f)
			}

			ok, missing := mapping.CheckRequired()
			if len(tt.wantMissing) > 0 {
				assert.False(t, ok)
				assert.Equal(t, tt.wantMissing, missing)
			} else {
				assert.True(t, ok)
				assert.Empty(t, missing)
			}
		})
	}
}

func TestResolver_ResolveDoesNotReportOptionalAsMissing(t *testing.T) {
	resolver := NewResolver(nil)

	mapping := resolver.Resolve([]string{
		"工单号", "车间", "维修人", "报修时间", "维修开始时间", "维修结束时间",
	})

	ok, missing := mapping.CheckRequired()
	require.True(t, ok)
	require.Empty(t, missing)

	// Unresolved optional fields still surface a usable default header.
	assert.Equal(t, "区域", mapping.Header(FieldArea))
	assert.Equal(t, "维修人分类", mapping.Header(FieldRepairPersonType))
	assert.Equal(t, "等待时间h", mapping.Header(FieldWaitTime))
}

func TestFieldMapping_HeaderPrefersSourceColumn(t *testing.T) {
	mapping := FieldMapping{
		FieldWorkshop: "车间",
		FieldWaitTime: "等待时间h",
	}

	assert.Equal(t, "车间", mapping.Header(FieldWorkshop))
	assert.Equal(t, "等待时间h", mapping.Header(FieldWaitTime))
	// Required field with no source column has no fallback.
	assert.Equal(t, "", mapping.Header(FieldReportTime))
}

func TestRostersAreDisjoint(t *testing.T) {
	seen := make(map[string]bool, len(RepairWorkers))
	for _, name := range RepairWorkers {
		seen[name] = true
	}
	for _, name := range Electricians {
		assert.False(t, seen[name], "name %s appears on both rosters", name)
	}
}
