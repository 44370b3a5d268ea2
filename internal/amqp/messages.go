package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"forecast/internal/projection"
	"forecast/internal/scenarios"
)

// ProjectionRequestMessage asks a worker to regenerate one scenario's
// projections. Options override the scenario's stored config.
type ProjectionRequestMessage struct {
	ScenarioID int                `json:"scenario_id"`
	Options    projection.Options `json:"options"`
	Timestamp  time.Time          `json:"timestamp"`
}

// NewProjectionRequestMessage creates a request stamped with the current time
func NewProjectionRequestMessage(scenarioID int, opts projection.Options) *ProjectionRequestMessage {
	return &ProjectionRequestMessage{
		ScenarioID: scenarioID,
		Options:    opts,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ProjectionRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProjectionRequestMessageFromJSON decodes a request. Requests without a
// positive scenario ID are rejected.
func ProjectionRequestMessageFromJSON(data []byte) (*ProjectionRequestMessage, error) {
	var msg ProjectionRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ScenarioID <= 0 {
		return nil, fmt.Errorf("invalid scenario_id %d", msg.ScenarioID)
	}
	return &msg, nil
}

// ProjectionGeneratedMessage announces a stored projection bundle. It carries
// the row count, not the rows; consumers read the bundle from the store.
type ProjectionGeneratedMessage struct {
	ScenarioID  int       `json:"scenario_id"`
	BundleID    string    `json:"bundle_id"`
	Rows        int       `json:"rows"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewProjectionGeneratedMessage summarizes b for scenarioID
func NewProjectionGeneratedMessage(scenarioID int, b scenarios.Bundle) *ProjectionGeneratedMessage {
	msg := &ProjectionGeneratedMessage{
		ScenarioID: scenarioID,
		BundleID:   b.ID.String(),
		Rows:       len(b.Rows),
	}
	if b.GeneratedAt != nil {
		msg.GeneratedAt = b.GeneratedAt.UTC()
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *ProjectionGeneratedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProjectionGeneratedMessageFromJSON decodes an event
func ProjectionGeneratedMessageFromJSON(data []byte) (*ProjectionGeneratedMessage, error) {
	var msg ProjectionGeneratedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
