// Package consumer hands transient exports to downstream classifier processes.
package consumer

import "encoding/json"

// ManifestFile is the manifest name looked up in each consumer directory.
const ManifestFile = "consumer.json"

// ActionPredict asks a consumer to classify the recording in Request.Dir.
const ActionPredict = "predict"

// Manifest describes a consumer.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
}

// Request is written to the consumer's stdin.
type Request struct {
	Action  string `json:"action"`
	Dir     string `json:"dir"`
	LabelID int    `json:"label_id"`
	Frames  int    `json:"frames"`
}

// Response is read from the consumer's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Consumer is a discovered consumer with its manifest and location.
type Consumer struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Reply pairs a consumer with the outcome of one request.
type Reply struct {
	Consumer string    `json:"consumer"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}
