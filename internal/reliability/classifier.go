// Package reliability classifies upstream provider failures so error
// events can tell the client whether reconnecting is worthwhile.
package reliability

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsRetryableRealtimeEvent classifies retryable upstream realtime
// error event types.
func IsRetryableRealtimeEvent(eventType string) bool {
	switch eventType {
	case "rate_limited", "resource_exhausted", "queue_overflow", "Error", "error":
		return true
	default:
		return false
	}
}
