// Package schema defines the logical column model of the maintenance log:
// the required and optional fields, their canonical Chinese header names,
// the personnel rosters, and the resolver that binds logical fields to the
// headers actually present in an uploaded workbook.
package schema
