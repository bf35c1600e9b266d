package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// HeaderSessionID carries the MCP session id on requests and responses.
const HeaderSessionID = "Mcp-Session-Id"

// DefaultHeartbeatInterval is how often an open push stream emits a
// heartbeat event.
const DefaultHeartbeatInterval = 30 * time.Second

const maxRequestBytes = 4 << 20

// StreamableTransport serves the MCP endpoint: JSON-RPC over POST, a
// server-push event stream over GET, session teardown over DELETE. One
// handler, one session registry, routed by method.
type StreamableTransport struct {
	mcpServer         *mcpserver.MCPServer
	sessions          *SessionStore
	heartbeatInterval time.Duration
	logger            *slog.Logger
}

// NewStreamableTransport creates the transport handler.
func NewStreamableTransport(mcpServer *mcpserver.MCPServer, sessions *SessionStore, logger *slog.Logger) *StreamableTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamableTransport{
		mcpServer:         mcpServer,
		sessions:          sessions,
		heartbeatInterval: DefaultHeartbeatInterval,
		logger:            logger,
	}
}

// ServeHTTP implements http.Handler.
func (t *StreamableTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		t.handlePost(w, r)
	case http.MethodGet:
		t.handleGet(w, r)
	case http.MethodDelete:
		t.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, GET, DELETE")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// messageProbe is the minimal view of an incoming JSON-RPC message needed
// for routing decisions.
type messageProbe struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      json.RawMessage `json:"id"`
}

func (t *StreamableTransport) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		t.writeRPCError(w, http.StatusBadRequest, mcp.PARSE_ERROR, "failed to read request body")
		return
	}

	var probe messageProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		t.writeRPCError(w, http.StatusBadRequest, mcp.PARSE_ERROR, "request body is not valid JSON-RPC")
		return
	}

	sessionID := r.Header.Get(HeaderSessionID)

	var session *Session
	switch {
	case sessionID != "":
		session, err = t.sessions.Get(sessionID)
		if err != nil {
			// A stale id is not recoverable on this request. The client must
			// re-initialize, which creates fresh state under a fresh id.
			t.writeRPCError(w, http.StatusNotFound, mcp.INVALID_REQUEST, "unknown session id")
			return
		}
	case probe.Method == "initialize":
		// Register before handling so the session is resolvable by the time
		// the response announces its id.
		session = t.sessions.Create()
	default:
		t.writeRPCError(w, http.StatusBadRequest, mcp.INVALID_REQUEST,
			"a session id is required for every message except initialize")
		return
	}

	response := t.mcpServer.HandleMessage(r.Context(), body)

	w.Header().Set(HeaderSessionID, session.ID)
	if response == nil {
		// Notification: nothing to send back.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		t.logger.Error("failed to write response", "session_id", session.ID, "error", err)
	}
}

func (t *StreamableTransport) handleGet(w http.ResponseWriter, r *http.Request) {
	var session *Session
	if sessionID := r.Header.Get(HeaderSessionID); sessionID != "" {
		var err error
		session, err = t.sessions.Get(sessionID)
		if err != nil {
			t.writeRPCError(w, http.StatusNotFound, mcp.INVALID_REQUEST, "unknown session id")
			return
		}
	} else {
		// A stream may be opened before any POST: mint a session and announce
		// its id, registered before the first event goes out.
		session = t.sessions.Create()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if !session.AttachStream(cancel) {
		t.writeRPCError(w, http.StatusNotFound, mcp.INVALID_REQUEST, "session is closed")
		return
	}
	defer session.DetachStream()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(HeaderSessionID, session.ID)
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {\"sessionId\":%q}\n\n", session.ID)
	flusher.Flush()

	t.logger.Debug("stream opened", "session_id", session.ID)

	ticker := time.NewTicker(t.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("stream closed", "session_id", session.ID)
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, "event: heartbeat\ndata: {}\n\n"); err != nil {
				t.logger.Debug("stream write failed", "session_id", session.ID, "error", err)
				return
			}
			flusher.Flush()
			session.Touch()
		}
	}
}

func (t *StreamableTransport) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(HeaderSessionID)
	if sessionID == "" {
		t.writeRPCError(w, http.StatusBadRequest, mcp.INVALID_REQUEST, "a session id is required")
		return
	}

	// Idempotent: deleting an unknown or already deleted id succeeds.
	if t.sessions.Delete(sessionID) {
		t.logger.Info("session terminated by client", "session_id", sessionID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeRPCError writes a JSON-RPC error object with a null id. Used for
// failures that happen before any message reaches dispatch.
func (t *StreamableTransport) writeRPCError(w http.ResponseWriter, httpStatus, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	resp := map[string]any{
		"jsonrpc": mcp.JSONRPC_VERSION,
		"id":      nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.logger.Error("failed to write error response", "error", err)
	}
}
