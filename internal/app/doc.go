// Package app provides application initialization and lifecycle
// management for the equipment fault statistics server. It wires
// configuration, logging, the WebSocket hub, the dataset service and
// the HTTP router together at startup and handles graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from files and environment
//	2. Initialize logging
//	3. Ensure data directories exist
//	4. Start the WebSocket hub and create the dataset service
//	5. Set up HTTP handlers and middleware
//	6. Configure and start the HTTP server
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains active requests
// within the configured shutdown timeout and stops the hub.
package app
