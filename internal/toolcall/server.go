package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/antigravity/gateway/internal/config"
)

// Server implements the §4.7 built-in tool-call surface: POST handles
// initialize/tools/list/tools/call, GET returns an SSE keep-alive for an
// initialized session, DELETE tears a session down.
//
// Grounded on lodos2005-antimatter's internal/mcp/server.go
// (server.NewMCPServer, mcp.NewTool, s.AddTool), generalized from admin
// tools to the vision registry. mcp-go's own HTTP transports assume a
// broader surface than this spec's minimal one, so the transport itself is
// hand-rolled around the library's tool dispatch (HandleMessage).
type Server struct {
	mcp      *server.MCPServer
	sessions *SessionStore
	vision   *VisionClient
}

// NewServer constructs a Server with the fixed vision tool registry
// registered against the mcp-go tool dispatcher.
func NewServer(vision *VisionClient, sessionTTL time.Duration) *Server {
	s := &Server{
		mcp:      server.NewMCPServer("antigravity-vision", "1.0.0", server.WithToolCapabilities(false)),
		sessions: NewSessionStore(sessionTTL),
		vision:   vision,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	for _, def := range Registry() {
		def := def
		tool := mcp.NewTool(def.Name,
			mcp.WithDescription(def.Description),
			mcp.WithString("path", mcp.Required(), mcp.Description("local file path to analyze")),
			mcp.WithString("prompt", mcp.Description("optional instruction for the analysis")),
		)
		s.mcp.AddTool(tool, s.handleToolCall(def))
	}
}

func (s *Server) handleToolCall(def ToolDef) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, _ := req.Params.Arguments["path"].(string)
		prompt, _ := req.Params.Arguments["prompt"].(string)

		dataURI, err := LoadDataURI(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, err := s.vision.Analyze(ctx, dataURI, prompt)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

// ServeHTTP dispatches by method per §4.7.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		s.handleKeepAlive(w, r)
	case http.MethodDelete:
		s.handleTeardown(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type rpcEnvelope struct {
	Method string          `json:"method"`
	ID     json.RawMessage `json:"id"`
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeJSONRPCError(w, nil, -32700, "parse error")
		return
	}

	if envelope.Method == "initialize" {
		sess := s.sessions.Create("2024-11-05")
		w.Header().Set("mcp-session-id", sess.ID)
		writeJSONRPCResult(w, envelope.ID, map[string]any{
			"protocolVersion": sess.ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "antigravity-vision", "version": "1.0.0"},
		})
		return
	}

	sessionID := r.Header.Get("mcp-session-id")
	if _, ok := s.sessions.Touch(sessionID); !ok {
		writeJSONRPCError(w, envelope.ID, -32001, "unknown session")
		return
	}

	resp := s.mcp.HandleMessage(r.Context(), body)
	raw, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (s *Server) handleKeepAlive(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("mcp-session-id")
	if _, ok := s.sessions.Get(sessionID); !ok {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, ": keep-alive\n\n")
	flusher.Flush()
	<-r.Context().Done()
}

func (s *Server) handleTeardown(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("mcp-session-id")
	if _, ok := s.sessions.Get(sessionID); !ok {
		http.NotFound(w, r)
		return
	}
	s.sessions.Delete(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSONRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": id, "result": result}); err != nil {
		log.Debug().Err(err).Msg("toolcall: failed to write jsonrpc result")
	}
}

func writeJSONRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": id, "error": map[string]any{"code": code, "message": message}}); err != nil {
		log.Debug().Err(err).Msg("toolcall: failed to write jsonrpc error")
	}
}
