package models

// CallLog records one authenticated backend call made by the pipeline
type CallLog struct {
	ID        string `gorm:"primaryKey" json:"id"`
	RequestID string `gorm:"index" json:"request_id"`
	Timestamp int64  `gorm:"index" json:"timestamp"`
	Method    string `json:"method"`
	Path      string `gorm:"index" json:"path"`
	Status    int    `json:"status"`
	Duration  int64  `json:"duration"` // milliseconds
	Retried   bool   `json:"retried"`
	Refreshed bool   `json:"refreshed"`
	Error     string `json:"error,omitempty"`
}

// CallStats holds aggregated statistics for call logs
type CallStats struct {
	TotalCalls   int64 `json:"total_calls"`
	SuccessCount int64 `json:"success_count"`
	ErrorCount   int64 `json:"error_count"`
	RetriedCount int64 `json:"retried_count"`
}
