// Package transform defines the narrow boundary between the routing engine
// and the actual Anthropic->Gemini request/response body transformation,
// which is an external collaborator (§4.6, Out of scope in §1).
//
// Grounded on tokligence-tokligence-gateway's externalized
// openai-anthropic-endpoint-translation dependency: translation lives behind
// an interface the gateway calls, not inline logic the gateway owns.
package transform

import (
	"context"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Request is the narrow view of an Anthropic-shaped request the transform
// pipeline needs: everything else in the original body is opaque to the
// gateway core.
type Request struct {
	Model         string
	MaxTokens     int
	StopSequences []string
	Thinking      bool
	Raw           []byte
}

// Response is the narrow view of what came back upstream.
type Response struct {
	StatusCode int
	Raw        []byte
}

// Transformer maps one Anthropic-shaped Request to a Gemini-shaped upstream
// call and back. The only contracts the routing engine relies on (§4.6):
// max_tokens -> generationConfig.maxOutputTokens, stop_sequences ->
// generationConfig.stopSequences with defaults when omitted, and thinking is
// never auto-enabled by the pipeline itself.
type Transformer interface {
	Call(ctx context.Context, accessToken, model string, req Request) (Response, error)
}

// defaultMaxOutputTokens is applied when a request omits max_tokens.
const defaultMaxOutputTokens = 4096

// GeminiStub is a minimal Transformer satisfying the three contracts the
// core depends on; it does not implement the full Anthropic<->Gemini schema
// mapping (that remains an external collaborator per §1).
type GeminiStub struct {
	// Endpoint is the Gemini-compatible base URL for the target model.
	Endpoint func(model string) string
	// Do performs the actual upstream HTTP call; injected so this package
	// carries no direct network dependency.
	Do func(ctx context.Context, url string, accessToken string, body []byte, timeout time.Duration) (Response, error)
	Timeout time.Duration
}

// Call builds a minimal generationConfig from the Anthropic request fields
// the core cares about and delegates the actual HTTP call to Do.
func (g *GeminiStub) Call(ctx context.Context, accessToken, model string, req Request) (Response, error) {
	body := req.Raw
	if body == nil {
		body = []byte(`{}`)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}
	var err error
	body, err = sjson.SetBytes(body, "generationConfig.maxOutputTokens", maxTokens)
	if err != nil {
		return Response{}, err
	}

	stops := req.StopSequences
	if len(stops) == 0 {
		stops = []string{}
	}
	body, err = sjson.SetBytes(body, "generationConfig.stopSequences", stops)
	if err != nil {
		return Response{}, err
	}

	// The pipeline never auto-enables thinking: it only ever propagates a
	// thinking preference the routing engine already decided on.
	if req.Thinking {
		body, err = sjson.SetBytes(body, "generationConfig.thinkingConfig.includeThoughts", true)
		if err != nil {
			return Response{}, err
		}
	} else if gjson.GetBytes(body, "generationConfig.thinkingConfig").Exists() {
		body, err = sjson.DeleteBytes(body, "generationConfig.thinkingConfig")
		if err != nil {
			return Response{}, err
		}
	}

	url := g.Endpoint(model)
	return g.Do(ctx, url, accessToken, body, g.Timeout)
}
