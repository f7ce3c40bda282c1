package domain

// Row is a single maintenance-log record keyed by header name, exactly as
// the header appears in row 1 of the source sheet. Cell values are kept as
// display text; an empty cell holds "".
type Row map[string]string

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	cp := make(Row, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// Dataset is an ordered record set extracted from one worksheet. Headers
// preserves the source column order; Rows are keyed by those headers.
type Dataset struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Clone returns a deep copy of the dataset so that downstream mutation never
// aliases the caller's data.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	cp := &Dataset{
		Headers: append([]string(nil), d.Headers...),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, row := range d.Rows {
		cp.Rows[i] = row.Clone()
	}
	return cp
}

// TransformStats summarizes one transform run. Counters are produced once per
// run and never decremented.
type TransformStats struct {
	TotalRowsRemoved          int  `json:"totalRowsRemoved"`
	IncompleteTimeRowsRemoved int  `json:"incompleteTimeRowsRemoved"`
	WorkshopColumnSplit       bool `json:"workshopColumnSplit"`
	RepairPersonClassified    bool `json:"repairPersonClassified"`
}

// DeletionReason classifies why a row was removed during transformation.
type DeletionReason string

const (
	// DeletionTotalRow marks rows dropped because the workshop column holds
	// the 合计 subtotal sentinel.
	DeletionTotalRow DeletionReason = "total_row"
	// DeletionIncompleteTime marks rows dropped because one of the three
	// timestamps is missing or unparseable.
	DeletionIncompleteTime DeletionReason = "incomplete_time"
)

// DeletedRows holds the audit copies of removed rows, bucketed by reason.
// Rows are deep copies and never re-enter the working set.
type DeletedRows struct {
	TotalRows          []Row `json:"totalRows"`
	IncompleteTimeRows []Row `json:"incompleteTimeRows"`
}

// ValidationResult is the outcome of the pre-transform structural check.
// Errors block processing; warnings are advisory.
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	ErrorCount   int      `json:"errorCount"`
	WarningCount int      `json:"warningCount"`
}

// ParetoItem is one ranked group in a Pareto analysis. Rank is zero-based in
// descending-value order. IsKey marks membership in the vital few (groups at
// or before the first index whose cumulative share reaches 80%).
type ParetoItem struct {
	Name                 string  `json:"name"`
	Value                float64 `json:"value"`
	Percentage           float64 `json:"percentage"`
	CumulativePercentage float64 `json:"cumulativePercentage"`
	Rank                 int     `json:"rank"`
	IsKey                bool    `json:"isKey"`
}
