package schema

// Field identifies a logical column of the maintenance log, independent of
// the header text actually present in an uploaded sheet.
type Field string

// Required fields. A sheet missing any of these cannot be processed.
const (
	FieldWorkOrder    Field = "workOrder"
	FieldWorkshop     Field = "workshop"
	FieldRepairPerson Field = "repairPerson"
	FieldReportTime   Field = "reportTime"
	FieldStartTime    Field = "startTime"
	FieldEndTime      Field = "endTime"
)

// Optional fields. When absent from the source these columns are synthesized
// by the transform pipeline under their canonical header names.
const (
	FieldArea             Field = "area"
	FieldRepairPersonType Field = "repairPersonType"
	FieldWaitTime         Field = "waitTime"
	FieldRepairTime       Field = "repairTime"
	FieldFaultTime        Field = "faultTime"
)

// RequiredColumns maps each required field to its canonical header text.
var RequiredColumns = map[Field]string{
	FieldWorkOrder:    "工单号",
	FieldWorkshop:     "车间",
	FieldRepairPerson: "维修人",
	FieldReportTime:   "报修时间",
	FieldStartTime:    "维修开始时间",
	FieldEndTime:      "维修结束时间",
}

// OptionalColumns maps each optional field to its canonical header text.
// These headers double as the default column names for synthesized fields.
var OptionalColumns = map[Field]string{
	FieldArea:             "区域",
	FieldRepairPersonType: "维修人分类",
	FieldWaitTime:         "等待时间h",
	FieldRepairTime:       "维修时间h",
	FieldFaultTime:        "故障时间h",
}

// OptionalFieldOrder fixes the column order for synthesized fields when they
// are appended to the output header row.
var OptionalFieldOrder = []Field{
	FieldArea,
	FieldRepairPersonType,
	FieldWaitTime,
	FieldRepairTime,
	FieldFaultTime,
}

// Grouping headers used by the drill-down hierarchy. Workshop doubles as a
// required field; the rest are plain data columns that may be absent, in
// which case aggregation falls back to the 未知 bucket.
const (
	HeaderEquipment   = "设备"
	HeaderEquipmentID = "设备编号"
	HeaderFailureType = "失效类型"
)

// Sentinel cell values.
const (
	// TotalRowSentinel marks subtotal rows inserted by spreadsheet authors.
	TotalRowSentinel = "合计"
	// UnknownValue is the bucket name for empty group keys and the category
	// for repair persons on neither roster.
	UnknownValue = "未知"
)

// Repair-person categories assigned by roster membership.
const (
	PersonTypeRepairWorker = "维修工"
	PersonTypeElectrician  = "电工"
	PersonTypeUnknown      = UnknownValue
)

// RepairWorkers is the fixed roster of mechanical repair workers.
var RepairWorkers = []string{
	"王兴森", "孙长青", "徐阴海", "任扶民",
	"吴长振", "张玉柱", "刘志强", "杨明印",
	"张金华", "刘金财", "崔树立", "杨致敬",
	"马圣强", "刘子凯", "何洪杰", "刘佳文",
}

// Electricians is the fixed roster of electricians. Disjoint from
// RepairWorkers.
var Electricians = []string{
	"李润海", "赵艳伟", "吴霄", "吴忠建",
	"李之彦", "宋桂良", "崔金辉", "李瑞召",
	"万庆权", "郭瑞臣", "郭兆勤", "赵同宽",
	"肖木凯", "赵燕伟",
}
