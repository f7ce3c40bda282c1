// Package pareto implements the hierarchical 80/20 analysis over the
// transformed maintenance log: grouping along the fixed
// 车间→设备→设备编号→失效类型 hierarchy, cumulative-contribution ranking with
// the vital-few cutoff, drill-down navigation state, and the declarative
// chart option object consumed by the external renderer.
package pareto
