// Package services holds the application service layer. DatasetService
// owns the in-memory dataset sessions and orchestrates parsing,
// validation, transformation, Pareto analysis and export on behalf of
// the HTTP handlers and the CLI.
package services
