package domain

import "time"

// UsageLog records one served transformation.
type UsageLog struct {
	RequestID       string    `json:"request_id"`
	ImageKey        string    `json:"image_key"`
	Operations      string    `json:"operations"`
	SourceBytes     int64     `json:"source_bytes"`
	OutputBytes     int64     `json:"output_bytes"`
	PixelsProcessed int64     `json:"pixels_processed"`
	ComputeTimeMS   int64     `json:"compute_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}
