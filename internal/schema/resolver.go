package schema

import (
	"log/slog"
	"strings"
)

// FieldMapping records, for each logical field, the header actually found in
// the uploaded sheet. An unresolved field maps to the empty string; for
// optional fields that is normal and the pipeline synthesizes the column.
type FieldMapping map[Field]string

// Header returns the header under which values for f live. For optional
// fields absent from the source it falls back to the canonical column name so
// synthesized values always have a well-known home. Required fields that did
// not resolve return "".
func (m FieldMapping) Header(f Field) string {
	if h, ok := m[f]; ok && h != "" {
		return h
	}
	if def, ok := OptionalColumns[f]; ok {
		return def
	}
	return ""
}

// CheckRequired reports whether every required field resolved, and the
// canonical header names of those that did not. Pure predicate; the caller
// decides whether absence is fatal.
func (m FieldMapping) CheckRequired() (ok bool, missing []string) {
	for _, f := range requiredFieldOrder {
		if m[f] == "" {
			missing = append(missing, RequiredColumns[f])
		}
	}
	return len(missing) == 0, missing
}

// requiredFieldOrder keeps CheckRequired output deterministic.
var requiredFieldOrder = []Field{
	FieldWorkOrder,
	FieldWorkshop,
	FieldRepairPerson,
	FieldReportTime,
	FieldStartTime,
	FieldEndTime,
}

// Resolver maps logical fields onto the header row of an uploaded sheet.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger falls back to slog.Default.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger.With(slog.String("component", "schema_resolver"))}
}

// Resolve matches every required and optional field against the given header
// row by exact comparison after trimming. Absent headers map to "". Resolve
// never fails; required-field absence is reported later by CheckRequired.
func (r *Resolver) Resolve(headers []string) FieldMapping {
	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}

	lookup := func(canonical string) string {
		for _, h := range trimmed {
			if h == canonical {
				return h
			}
		}
		return ""
	}

	mapping := make(FieldMapping, len(RequiredColumns)+len(OptionalColumns))
	for f, canonical := range RequiredColumns {
		mapping[f] = lookup(canonical)
	}
	for f, canonical := range OptionalColumns {
		mapping[f] = lookup(canonical)
	}

	_, missing := mapping.CheckRequired()
	r.logger.Debug("resolved column mapping",
		slog.Int("header_count", len(headers)),
		slog.Int("missing_required", len(missing)))

	return mapping
}
