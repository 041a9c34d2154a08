package gateway

import (
	"encoding/json"
	"net/http"
)

// Protocol identifies which wire shape an error response must take (§7).
type Protocol int

const (
	ProtocolAnthropic Protocol = iota
	ProtocolOpenAI
	ProtocolGemini
)

// writeJSONError writes a generic {"type":"error","error":{...}} envelope for internal/
// config-level failures that precede protocol detection.
func writeJSONError(w http.ResponseWriter, status int, message, errType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type": "error",
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}

// writeConfigInvalid surfaces a dispatcher configuration error (§7:
// exclusive mode with an ineligible passthrough) as 400 Anthropic-shaped.
func writeConfigInvalid(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type": "error",
		"error": map[string]string{
			"type":    "invalid_request_error",
			"message": message,
		},
	})
}

// writeExhausted surfaces fallback-chain exhaustion in the shape the
// calling surface's protocol expects.
func writeExhausted(w http.ResponseWriter, protocol Protocol, model string) {
	message := "No available accounts for model: " + model + " (quota exhausted/unknown)."
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	switch protocol {
	case ProtocolOpenAI:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"message": message,
				"type":    "insufficient_quota",
				"code":    "quota_exhausted",
			},
		})
	case ProtocolGemini:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    http.StatusTooManyRequests,
				"status":  "RESOURCE_EXHAUSTED",
				"message": message,
			},
		})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type": "error",
			"error": map[string]string{
				"type":    "overloaded_error",
				"message": message,
			},
		})
	}
}

// sseExhaustedEvent renders the same exhaustion shape as an SSE error event
// for streaming requests (§7: never leave the stream open).
func sseExhaustedEvent(protocol Protocol, model string) []byte {
	message := "No available accounts for model: " + model + " (quota exhausted/unknown)."

	var payload map[string]any
	switch protocol {
	case ProtocolOpenAI:
		payload = map[string]any{"error": map[string]string{"message": message, "type": "insufficient_quota", "code": "quota_exhausted"}}
	case ProtocolGemini:
		payload = map[string]any{"error": map[string]any{"code": http.StatusTooManyRequests, "status": "RESOURCE_EXHAUSTED", "message": message}}
	default:
		payload = map[string]any{"type": "error", "error": map[string]string{"type": "overloaded_error", "message": message}}
	}
	data, _ := json.Marshal(payload)
	out := append([]byte("event: error\ndata: "), data...)
	return append(out, '\n', '\n')
}
