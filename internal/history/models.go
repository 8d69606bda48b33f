package history

import "time"

const SchemaVersion = 1

// Snapshot records the outcome of one full boundary scan. APIChecksum is
// the combined fingerprint of every engine's api directory at scan time, so
// trend queries can tell policy edits apart from code churn.
type Snapshot struct {
	RunID               string    `json:"run_id"`
	SchemaVersion       int       `json:"schema_version"`
	Timestamp           time.Time `json:"timestamp"`
	CommitHash          string    `json:"commit_hash,omitempty"`
	CommitTimestamp     time.Time `json:"commit_timestamp,omitempty"`
	FileCount           int       `json:"file_count"`
	EngineCount         int       `json:"engine_count"`
	ViolationCount      int       `json:"violation_count"`
	StandardCount       int       `json:"standard_count"`
	StrongInboundCount  int       `json:"strong_inbound_count"`
	StrongOutboundCount int       `json:"strong_outbound_count"`
	APIChecksum         string    `json:"api_checksum,omitempty"`
}
