// Package events defines the WebSocket event contract shared between
// the server and browser clients.
package events

import "time"

// Event types pushed over the /ws endpoint.
const (
	TypeConnection        = "connection"
	TypeDatasetUploaded   = "dataset:uploaded"
	TypeTransformProgress = "transform:progress"
	TypeTransformComplete = "transform:complete"
	TypeChartUpdate       = "chart:update"
	TypeError             = "error"
)

// Envelope wraps every event with its type and emission time.
type Envelope struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

// New builds an envelope stamped with the current time.
func New(eventType string, data map[string]interface{}) Envelope {
	return Envelope{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
