package toolcall

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/antigravity/gateway/internal/config"
)

var imageExts = map[string]string{".png": "image/png", ".jpg": "image/jpeg", ".jpeg": "image/jpeg"}
var videoExts = map[string]string{".mp4": "video/mp4", ".mov": "video/quicktime", ".m4v": "video/x-m4v"}

// ToolError is a tool-level failure (§4.7: "oversize inputs yield a tool
// error, not a transport error") as opposed to a network/transport failure.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string { return e.Message }

// LoadDataURI reads a local file and base64-encodes it into a data URI,
// enforcing the per-kind size and extension limits.
func LoadDataURI(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var maxSize int64
	var mimeType string
	if m, ok := imageExts[ext]; ok {
		maxSize, mimeType = config.MaxImageBytes, m
	} else if m, ok := videoExts[ext]; ok {
		maxSize, mimeType = config.MaxVideoBytes, m
	} else {
		return "", &ToolError{Message: fmt.Sprintf("unsupported file type: %s", ext)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &ToolError{Message: fmt.Sprintf("cannot read file: %v", err)}
	}
	if info.Size() > maxSize {
		return "", &ToolError{Message: fmt.Sprintf("file exceeds size limit of %d bytes", maxSize)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ToolError{Message: fmt.Sprintf("cannot read file: %v", err)}
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

// visionModelID is the hardcoded model id the upstream vision endpoint
// expects (§4.7).
const visionModelID = "glm-4.5v"

// VisionClient calls the vision chat-completions endpoint, preferring the
// coding endpoint when the key carries that entitlement and falling back to
// the general endpoint only on the upstream errors that indicate the coding
// endpoint doesn't recognize the key (§4.7).
type VisionClient struct {
	http                 *resty.Client
	codingEndpoint       string
	generalEndpoint      string
	apiKey               string
	hasCodingEntitlement bool
}

// NewVisionClient constructs a VisionClient.
func NewVisionClient(codingEndpoint, generalEndpoint, apiKey string, hasCodingEntitlement bool, timeout time.Duration) *VisionClient {
	return &VisionClient{
		http:                 resty.New().SetTimeout(timeout),
		codingEndpoint:       codingEndpoint,
		generalEndpoint:      generalEndpoint,
		apiKey:               apiKey,
		hasCodingEntitlement: hasCodingEntitlement,
	}
}

// fallbackStatuses are the specific upstream errors that justify retrying
// the general endpoint after the coding endpoint rejected the key.
var fallbackStatuses = map[int]bool{401: true, 403: true, 404: true}

// Analyze sends dataURI plus an optional prompt to the vision endpoint.
func (v *VisionClient) Analyze(ctx context.Context, dataURI, prompt string) (string, error) {
	status, body, err := v.call(ctx, v.endpointForFirstAttempt(), dataURI, prompt)
	if err == nil && !fallbackStatuses[status] {
		return body, nil
	}
	if err == nil && v.hasCodingEntitlement {
		_, body, fallbackErr := v.call(ctx, v.generalEndpoint, dataURI, prompt)
		if fallbackErr == nil {
			return body, nil
		}
		return "", fallbackErr
	}
	if err != nil {
		return "", err
	}
	return "", fmt.Errorf("toolcall: vision upstream returned status %d", status)
}

func (v *VisionClient) endpointForFirstAttempt() string {
	if v.hasCodingEntitlement {
		return v.codingEndpoint
	}
	return v.generalEndpoint
}

func (v *VisionClient) call(ctx context.Context, endpoint, dataURI, prompt string) (int, string, error) {
	payload := map[string]any{
		"model": visionModelID,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{"url": dataURI}},
				},
			},
		},
	}
	resp, err := v.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+v.apiKey).
		SetHeader("x-api-key", v.apiKey).
		SetBody(payload).
		Post(endpoint)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode(), resp.String(), nil
}
