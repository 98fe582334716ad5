package constants

// Error codes for the ingestion pipeline
// Each code maps to one handling policy at the coordinator boundary.

// Feed errors
const (
	ErrCodeFeedUnavailable = "FEED_UNAVAILABLE" // network/timeout; retried with backoff
	ErrCodeFeedCorrupt     = "FEED_CORRUPT"     // unparseable document; cycle skipped
	ErrCodeRecordInvalid   = "RECORD_INVALID"   // per-record violation; record dropped
)

// Persistence errors
const (
	ErrCodePersistenceTransient = "PERSISTENCE_TRANSIENT" // rolled back; buffer re-flushed next cycle
	ErrCodePersistenceFatal     = "PERSISTENCE_FATAL"     // schema/auth drift; process aborts
)

// Startup and detector errors
const (
	ErrCodeConfiguration = "CONFIGURATION_ERROR" // abort at startup, exit code 1
	ErrCodeDetector      = "DETECTOR_ERROR"      // logged; detection skipped this round
)

var errorMessages = map[string]string{
	ErrCodeFeedUnavailable:      "Upstream feed did not respond within the timeout",
	ErrCodeFeedCorrupt:          "Upstream feed returned a structurally invalid document",
	ErrCodeRecordInvalid:        "Record failed type or range validation",
	ErrCodePersistenceTransient: "Transient database error, the batch was rolled back",
	ErrCodePersistenceFatal:     "Unrecoverable database error",
	ErrCodeConfiguration:        "Invalid or missing configuration",
	ErrCodeDetector:             "Detector failed, detection skipped for this cycle",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
