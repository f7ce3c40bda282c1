// Package dataprocessing contains the maintenance-log processing core: the
// workbook parser that turns an uploaded xlsx file into an ordered record
// set, the timestamp parsing helpers, and the five-stage transform pipeline
// (subtotal-row removal, workshop/area split, repair-person classification,
// elapsed-time derivation, incomplete-time removal).
package dataprocessing
