package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"efscli/internal/schema"
	"efscli/pkg/contracts/domain"
)

// TransformResult carries the enriched row set and run statistics.
type TransformResult struct {
	Data  *domain.Dataset       `json:"data"`
	Stats domain.TransformStats `json:"stats"`
}

// Pipeline runs the five transformation stages over a validated record set.
// Stage order is load-bearing: each stage consumes the previous stage's
// output, and the incomplete-time removal must run after time derivation so
// the deletion reason reflects the same validity test.
//
// The pipeline assumes required-field presence was already checked by
// validation.RowValidator; it never fails on data-shape anomalies.
type Pipeline struct {
	logger *slog.Logger

	data    []domain.Row
	mapping schema.FieldMapping
	stats   domain.TransformStats
	deleted domain.DeletedRows

	repairWorkers map[string]bool
	electricians  map[string]bool
}

// NewPipeline creates a transform pipeline. A nil logger falls back to
// slog.Default.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:        logger.With(slog.String("component", "transform_pipeline")),
		repairWorkers: rosterSet(schema.RepairWorkers),
		electricians:  rosterSet(schema.Electricians),
	}
}

func rosterSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// Transform resets internal state, deep-clones the input and executes the
// five stages in order. The returned dataset's header row is the source
// order plus any synthesized optional columns.
func (p *Pipeline) Transform(ds *domain.Dataset, mapping schema.FieldMapping) *TransformResult {
	p.Reset()
	p.mapping = mapping

	clone := ds.Clone()
	p.data = clone.Rows

	p.removeTotalRows()
	p.splitWorkshopColumn()
	p.classifyRepairPersons()
	p.calculateTimes()
	p.removeIncompleteTimeRows()

	out := &domain.Dataset{
		Headers: p.outputHeaders(clone.Headers),
		Rows:    p.data,
	}

	p.logger.Info("transform complete",
		slog.Int("input_rows", len(ds.Rows)),
		slog.Int("output_rows", len(out.Rows)),
		slog.Int("total_rows_removed", p.stats.TotalRowsRemoved),
		slog.Int("incomplete_time_rows_removed", p.stats.IncompleteTimeRowsRemoved))

	return &TransformResult{Data: out, Stats: p.stats}
}

// removeTotalRows drops rows whose workshop cell equals the 合计 subtotal
// sentinel. Dropped rows are kept verbatim in the TotalRow bucket. No-op when
// the workshop column is unmapped.
func (p *Pipeline) removeTotalRows() {
	workshopKey := p.mapping[schema.FieldWorkshop]
	if workshopKey == "" {
		return
	}

	kept := p.data[:0]
	for _, row := range p.data {
		if strings.TrimSpace(row[workshopKey]) == schema.TotalRowSentinel {
			p.deleted.TotalRows = append(p.deleted.TotalRows, row.Clone())
			p.stats.TotalRowsRemoved++
			continue
		}
		kept = append(kept, row)
	}
	p.data = kept
}

// splitWorkshopColumn splits 车间-区域 values on the first '-' into workshop
// and area, both trimmed. Rows without a delimiter keep their workshop value
// and get an empty area, so the area column is always defined afterwards.
func (p *Pipeline) splitWorkshopColumn() {
	workshopKey := p.mapping[schema.FieldWorkshop]
	if workshopKey == "" {
		return
	}
	areaKey := p.mapping.Header(schema.FieldArea)

	for _, row := range p.data {
		value := row[workshopKey]
		if before, after, found := strings.Cut(value, "-"); found {
			row[workshopKey] = strings.TrimSpace(before)
			row[areaKey] = strings.TrimSpace(after)
		} else {
			if _, ok := row[areaKey]; !ok {
				row[areaKey] = ""
			}
		}
	}

	p.stats.WorkshopColumnSplit = true
}

// classifyRepairPersons assigns 维修工 / 电工 / 未知 by roster membership of
// the trimmed name. Empty names and names on neither roster classify as 未知.
func (p *Pipeline) classifyRepairPersons() {
	personKey := p.mapping[schema.FieldRepairPerson]
	if personKey == "" {
		return
	}
	typeKey := p.mapping.Header(schema.FieldRepairPersonType)

	for _, row := range p.data {
		row[typeKey] = p.classify(row[personKey])
	}

	p.stats.RepairPersonClassified = true
}

func (p *Pipeline) classify(name string) string {
	trimmed := strings.TrimSpace(name)
	switch {
	case p.repairWorkers[trimmed]:
		return schema.PersonTypeRepairWorker
	case p.electricians[trimmed]:
		return schema.PersonTypeElectrician
	default:
		return schema.PersonTypeUnknown
	}
}

// calculateTimes derives wait, repair and fault hours for rows whose three
// timestamps all parse. Fault time is the sum of the unrounded wait and
// repair values, rounded once. Rows with any unparseable timestamp get none
// of the three fields and fall through to the removal stage.
func (p *Pipeline) calculateTimes() {
	reportKey := p.mapping[schema.FieldReportTime]
	startKey := p.mapping[schema.FieldStartTime]
	endKey := p.mapping[schema.FieldEndTime]
	if reportKey == "" || startKey == "" || endKey == "" {
		return
	}

	waitKey := p.mapping.Header(schema.FieldWaitTime)
	repairKey := p.mapping.Header(schema.FieldRepairTime)
	faultKey := p.mapping.Header(schema.FieldFaultTime)

	for _, row := range p.data {
		report, okReport := ParseDateTime(row[reportKey])
		start, okStart := ParseDateTime(row[startKey])
		end, okEnd := ParseDateTime(row[endKey])
		if !okReport || !okStart || !okEnd {
			continue
		}

		wait := HoursBetween(report, start)
		repair := HoursBetween(start, end)

		row[waitKey] = FormatHours(wait)
		row[repairKey] = FormatHours(repair)
		row[faultKey] = FormatHours(wait + repair)
	}
}

// removeIncompleteTimeRows drops rows unless all three timestamps are present
// and individually parse. Dropped rows go to the IncompleteTime bucket.
func (p *Pipeline) removeIncompleteTimeRows() {
	reportKey := p.mapping[schema.FieldReportTime]
	startKey := p.mapping[schema.FieldStartTime]
	endKey := p.mapping[schema.FieldEndTime]
	if reportKey == "" || startKey == "" || endKey == "" {
		return
	}

	kept := p.data[:0]
	for _, row := range p.data {
		if IsValidDateTime(row[reportKey]) &&
			IsValidDateTime(row[startKey]) &&
			IsValidDateTime(row[endKey]) {
			kept = append(kept, row)
			continue
		}
		p.deleted.IncompleteTimeRows = append(p.deleted.IncompleteTimeRows, row.Clone())
		p.stats.IncompleteTimeRowsRemoved++
	}
	p.data = kept
}

// outputHeaders appends synthesized optional columns, in canonical order, to
// the source header row when the source did not already carry them.
func (p *Pipeline) outputHeaders(source []string) []string {
	headers := append([]string(nil), source...)
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}

	for _, f := range schema.OptionalFieldOrder {
		h := p.mapping.Header(f)
		if h != "" && !present[h] {
			headers = append(headers, h)
			present[h] = true
		}
	}
	return headers
}

// GetDeletedRows returns both deletion buckets for audit display.
func (p *Pipeline) GetDeletedRows() domain.DeletedRows {
	return p.deleted
}

// Reset clears working state, stats and deletion buckets.
func (p *Pipeline) Reset() {
	p.data = nil
	p.mapping = nil
	p.stats = domain.TransformStats{}
	p.deleted = domain.DeletedRows{}
}

// Summary renders a human-readable description of the last run for the UI
// banner.
func (p *Pipeline) Summary(result *TransformResult) string {
	if result == nil {
		return "尚未进行数据处理"
	}
	done := func(b bool) string {
		if b {
			return "已完成"
		}
		return "跳过"
	}
	return fmt.Sprintf(
		"数据处理完成\n- 处理后数据行数: %d\n- 删除\"合计\"行: %d 行\n- 删除时间不完整行: %d 行\n- 车间列分列: %s\n- 维修人分类: %s",
		len(result.Data.Rows),
		result.Stats.TotalRowsRemoved,
		result.Stats.IncompleteTimeRowsRemoved,
		done(result.Stats.WorkshopColumnSplit),
		done(result.Stats.RepairPersonClassified),
	)
}
