package proxy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vaultgate/vaultgate/internal/audit"
	"github.com/vaultgate/vaultgate/internal/ratelimit"
)

// Config is the static policy and tool catalog a Server is built from.
type Config struct {
	BlockedTools []string
	RateLimit    int
	RateWindow   time.Duration
	Tools        []Tool
	Resources    []Resource
}

// Server dispatches tools/list, resources/list, and tools/call requests,
// applying the blocklist, rate limit, reference resolution, redaction, and
// audit pipeline to every tools/call.
type Server struct {
	tools     []Tool
	resources []Resource
	blocked   map[string]struct{}
	limiter   *ratelimit.Limiter
	lookup    Lookup
	auditLog  *audit.Writer
	metrics   *Metrics
}

// NewServer constructs a Server. lookup resolves `{ref:<id>}` occurrences
// against the vault; auditLog receives one record per tools/call; metrics
// may be nil to disable Prometheus counters.
func NewServer(cfg Config, lookup Lookup, auditLog *audit.Writer, metrics *Metrics) *Server {
	blocked := make(map[string]struct{}, len(cfg.BlockedTools))
	for _, name := range cfg.BlockedTools {
		blocked[name] = struct{}{}
	}

	return &Server{
		tools:     cfg.Tools,
		resources: cfg.Resources,
		blocked:   blocked,
		limiter:   ratelimit.New(cfg.RateLimit, cfg.RateWindow),
		lookup:    lookup,
		auditLog:  auditLog,
		metrics:   metrics,
	}
}

// HandleLine decodes one JSON-RPC request line and returns the complete
// response line (JSON object followed by no trailing newline; the caller's
// transport appends it). A malformed line still produces a well-formed
// JSON-RPC error response.
func (s *Server) HandleLine(line []byte) []byte {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return mustMarshal(errorResponse(nil, CodeInvalidRequest, "malformed JSON request"))
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		return mustMarshal(errorResponse(req.ID, CodeInvalidRequest, "missing jsonrpc version or method"))
	}

	switch req.Method {
	case "tools/list":
		return mustMarshal(Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: ToolsListResult{Tools: s.tools}})
	case "resources/list":
		return mustMarshal(Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: ResourcesListResult{Resources: s.resources}})
	case "tools/call":
		return s.handleToolsCall(req)
	default:
		return mustMarshal(errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method)))
	}
}

func (s *Server) handleToolsCall(req Request) []byte {
	var params ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return mustMarshal(errorResponse(req.ID, CodeInvalidRequest, "tools/call requires params.name"))
	}

	// 1. Blocklist check.
	if _, blocked := s.blocked[params.Name]; blocked {
		s.audit(params.Name, audit.StatusBlocked, "")
		s.metrics.record("blocked")
		return mustMarshal(errorResponse(req.ID, CodePolicyDenied, fmt.Sprintf("Tool %s is blocked by policy", params.Name)))
	}

	// 2. Rate check.
	if !s.limiter.Allow(params.Name) {
		s.audit(params.Name, audit.StatusRateLimited, "")
		s.metrics.record("rate_limited")
		return mustMarshal(errorResponse(req.ID, CodeRateLimited, "Rate limit exceeded"))
	}

	// 3. Reference resolution.
	resolved := resolveArguments(params.Arguments, s.lookup)

	// 4. Execution stub / passthrough: the proxy is agnostic about how the
	// resolved call is actually dispatched downstream.
	result := ToolsCallResult{Success: true, Tool: params.Name, Params: resolved}
	resp := Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result}

	// 5. Redaction over the serialized response.
	line := Redact(string(mustMarshal(resp)))

	// 6. Audit append.
	s.audit(params.Name, audit.StatusSuccess, "")
	s.metrics.record("allow")

	return []byte(line)
}

func (s *Server) audit(tool, status, detail string) {
	if s.auditLog == nil {
		return
	}
	_ = s.auditLog.Append(audit.Record{
		Method: "tools/call",
		Tool:   tool,
		Status: status,
		Detail: detail,
	})
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable if a Response contains a value json.Marshal cannot
		// encode, which never happens for the types this package builds.
		panic(fmt.Sprintf("proxy: marshal response: %v", err))
	}
	return data
}
