// Package validation implements the pre-transform structural check over a
// parsed record set. It is the single authority deciding whether an anomaly
// blocks processing (error) or is merely advisory (warning).
package validation

import (
	"fmt"
	"log/slog"
	"strings"

	"efscli/internal/dataprocessing"
	"efscli/internal/schema"
	"efscli/pkg/contracts/domain"
)

// RowValidator inspects source records before transformation. It never
// mutates its input and is idempotent.
type RowValidator struct {
	logger *slog.Logger
}

// NewRowValidator creates a validator. A nil logger falls back to
// slog.Default.
func NewRowValidator(logger *slog.Logger) *RowValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RowValidator{logger: logger.With(slog.String("component", "row_validator"))}
}

// Validate checks the record set for readiness. An empty record set fails
// fast with a single error. Each missing required column yields one error.
// Row-level anomalies are tallied and reported as one aggregated warning per
// category so large sheets cannot flood the UI.
func (v *RowValidator) Validate(rows []domain.Row, mapping schema.FieldMapping) *domain.ValidationResult {
	result := &domain.ValidationResult{Valid: true}

	if len(rows) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "数据为空：没有可处理的数据行")
		return v.finish(result)
	}

	if ok, missing := mapping.CheckRequired(); !ok {
		result.Valid = false
		for _, col := range missing {
			result.Errors = append(result.Errors, fmt.Sprintf("缺少必需列: %s", col))
		}
	}

	v.tallyRowAnomalies(rows, mapping, result)
	return v.finish(result)
}

// tallyRowAnomalies scans every record regardless of column-level validity so
// the warnings describe the sheet the user actually uploaded.
func (v *RowValidator) tallyRowAnomalies(rows []domain.Row, mapping schema.FieldMapping, result *domain.ValidationResult) {
	workOrderKey := mapping[schema.FieldWorkOrder]
	reportKey := mapping[schema.FieldReportTime]
	startKey := mapping[schema.FieldStartTime]
	endKey := mapping[schema.FieldEndTime]

	var emptyWorkOrders, missingTime, invalidDates int
	for _, row := range rows {
		if strings.TrimSpace(row[workOrderKey]) == "" {
			emptyWorkOrders++
		}

		report := strings.TrimSpace(row[reportKey])
		start := strings.TrimSpace(row[startKey])
		end := strings.TrimSpace(row[endKey])

		if report == "" || start == "" || end == "" {
			missingTime++
			continue
		}
		for _, ts := range []string{report, start, end} {
			if !dataprocessing.IsValidDateTime(ts) {
				invalidDates++
			}
		}
	}

	if emptyWorkOrders > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("发现 %d 行工单号为空", emptyWorkOrders))
	}
	if missingTime > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("发现 %d 行时间数据不完整（将在处理时删除）", missingTime))
	}
	if invalidDates > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("发现 %d 个无效日期格式", invalidDates))
	}
}

func (v *RowValidator) finish(result *domain.ValidationResult) *domain.ValidationResult {
	result.ErrorCount = len(result.Errors)
	result.WarningCount = len(result.Warnings)

	v.logger.Info("validation complete",
		slog.Bool("valid", result.Valid),
		slog.Int("errors", result.ErrorCount),
		slog.Int("warnings", result.WarningCount))

	return result
}

// Summary renders the one-line outcome shown in the UI banner.
func Summary(result *domain.ValidationResult) string {
	if result == nil {
		return "尚未进行数据验证"
	}
	if result.Valid {
		s := "✓ 数据验证通过"
		if result.WarningCount > 0 {
			s += fmt.Sprintf("\n⚠ %d 个警告", result.WarningCount)
		}
		return s
	}
	return fmt.Sprintf("✗ 数据验证失败\n%d 个错误", result.ErrorCount)
}
