// Package capture decodes data-capture log lines written by the serving
// endpoint. Each line is one JSON object holding a request/response pair.
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EncodingCSV is the only payload encoding the pipeline understands.
const EncodingCSV = "CSV"

// ErrMalformed is returned for lines that are not valid capture records.
var ErrMalformed = errors.New("malformed capture record")

// Payload is one side of a captured exchange.
type Payload struct {
	ObservedContentType string `json:"observedContentType,omitempty"`
	Mode                string `json:"mode,omitempty"`
	Data                string `json:"data"`
	Encoding            string `json:"encoding"`
}

// Data groups the captured endpoint input and output.
type Data struct {
	EndpointInput  Payload `json:"endpointInput"`
	EndpointOutput Payload `json:"endpointOutput"`
}

// EventMetadata identifies a captured invocation.
type EventMetadata struct {
	EventID       string `json:"eventId"`
	InferenceTime string `json:"inferenceTime"`
}

// Record is one decoded capture line.
type Record struct {
	CaptureData   Data          `json:"captureData"`
	EventMetadata EventMetadata `json:"eventMetadata"`
	EventVersion  string        `json:"eventVersion,omitempty"`
}

// Decode parses a single capture line.
func Decode(line []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &rec, nil
}

// Sample returns the captured input and output payloads.
func (r *Record) Sample() (input, output Payload) {
	return r.CaptureData.EndpointInput, r.CaptureData.EndpointOutput
}

// Inputs returns the raw comma-separated input values.
func (r *Record) Inputs() string { return r.CaptureData.EndpointInput.Data }

// Outputs returns the raw comma-separated output values.
func (r *Record) Outputs() string { return r.CaptureData.EndpointOutput.Data }

// RequestID returns the event identifier of the capture.
func (r *Record) RequestID() string { return r.EventMetadata.EventID }

// InferenceTime parses the capture timestamp. A zero time is returned with
// the parse error when the field is missing or not RFC 3339.
func (r *Record) InferenceTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, r.EventMetadata.InferenceTime)
}
