package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iot-dsa/dslink-go/pkg/log"
)

// exportRecord is the JSONL shape of one event, with enum fields
// rendered as names rather than integers.
type exportRecord struct {
	Timestamp    string                `json:"ts"`
	ConnectionID string                `json:"connId,omitempty"`
	Direction    string                `json:"direction"`
	Layer        string                `json:"layer"`
	Category     string                `json:"category"`
	DsID         string                `json:"dsId,omitempty"`
	BrokerURI    string                `json:"brokerUri,omitempty"`
	Frame        *log.FrameEvent       `json:"frame,omitempty"`
	Message      *log.MessageEvent     `json:"message,omitempty"`
	StateChange  *log.StateChangeEvent `json:"stateChange,omitempty"`
	Error        *log.ErrorEventData   `json:"error,omitempty"`
}

// Export writes matching events from a trace file as one JSON object
// per line.
func Export(w io.Writer, path string, filter log.Filter) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read trace: %w", err)
		}

		record := exportRecord{
			Timestamp:    event.Timestamp.UTC().Format(time.RFC3339Nano),
			ConnectionID: event.ConnectionID,
			Direction:    event.Direction.String(),
			Layer:        event.Layer.String(),
			Category:     event.Category.String(),
			DsID:         event.DsID,
			BrokerURI:    event.BrokerURI,
			Frame:        event.Frame,
			Message:      event.Message,
			StateChange:  event.StateChange,
			Error:        event.Error,
		}
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
}
