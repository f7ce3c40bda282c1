// Package exporter writes cleaned maintenance datasets to CSV, JSON and
// Excel. CSV output is prefixed with a UTF-8 BOM so Excel renders the
// Chinese headers correctly, and Excel workbooks carry the removed rows
// on separate sheets next to the cleaned data.
package exporter
