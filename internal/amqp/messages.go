package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tsdash/internal/core"
)

// ExportRequestMessage asks the export worker to copy a filtered view to the
// spreadsheet. The worker regenerates or reloads the dataset from the seed,
// so only the job reference and the filter travel on the wire.
type ExportRequestMessage struct {
	JobID     string          `json:"job_id"`
	Seed      int64           `json:"seed"`
	Filter    core.FilterSpec `json:"filter"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewExportRequestMessage(jobID string, seed int64, filter core.FilterSpec) *ExportRequestMessage {
	return &ExportRequestMessage{
		JobID:     jobID,
		Seed:      seed,
		Filter:    filter,
		Timestamp: time.Now(),
	}
}

func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestMessageFromJSON decodes and validates a message body.
func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return nil, errors.New("export request without job id")
	}
	if _, err := msg.Filter.Filter(); err != nil {
		return nil, fmt.Errorf("export request %s: %w", msg.JobID, err)
	}
	return &msg, nil
}
