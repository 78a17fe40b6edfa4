package domain

// BatchProcessingResult is the aggregated outcome of one refresh pass over
// all tracked channels. Per-channel failures are reported here, never as a
// returned error; FailedChannelIDs is in completion order and carries no
// ordering guarantee.
type BatchProcessingResult struct {
	TotalProcessed   int      `json:"totalProcessed"`
	SuccessCount     int      `json:"successCount"`
	FailureCount     int      `json:"failureCount"`
	FailedChannelIDs []string `json:"failedChannelIds"`
}
