package proxy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vaultgate/vaultgate/internal/audit"
)

func newTestServer(t *testing.T, cfg Config, lookup Lookup) (*Server, *audit.Writer, string) {
	t.Helper()

	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.jsonl")
	w, err := audit.Open(auditPath)
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	return NewServer(cfg, lookup, w, nil), w, auditPath
}

func readAuditRecords(t *testing.T, path string) []audit.Record {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}

	var records []audit.Record
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		var rec audit.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("unmarshal audit line %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func splitLines(data []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			out = append(out, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		out = append(out, data[start:])
	}
	return out
}

func callRequest(t *testing.T, id, name string, arguments interface{}) []byte {
	t.Helper()

	params, err := json.Marshal(ToolsCallParams{Name: name, Arguments: arguments})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	req := Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`"` + id + `"`), Method: "tools/call", Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return data
}

func decodeResponse(t *testing.T, line []byte) Response {
	t.Helper()

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", line, err)
	}
	return resp
}

func TestToolsListAndResourcesList(t *testing.T) {
	cfg := Config{
		Tools:     []Tool{{Name: "search", Description: "search the web"}},
		Resources: []Resource{{Name: "docs", URI: "docs://home"}},
	}
	srv, _, _ := newTestServer(t, cfg, nil)

	req := Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`1`), Method: "tools/list"}
	data, _ := json.Marshal(req)
	resp := decodeResponse(t, srv.HandleLine(data))
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	req2 := Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`2`), Method: "resources/list"}
	data2, _ := json.Marshal(req2)
	resp2 := decodeResponse(t, srv.HandleLine(data2))
	if resp2.Error != nil {
		t.Fatalf("unexpected error: %+v", resp2.Error)
	}
}

func TestMalformedRequestReturnsInvalidRequest(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{}, nil)

	resp := decodeResponse(t, srv.HandleLine([]byte(`not json`)))
	if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Fatalf("expected invalid request error, got %+v", resp.Error)
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{}, nil)

	req := Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`1`), Method: "prompts/list"}
	data, _ := json.Marshal(req)
	resp := decodeResponse(t, srv.HandleLine(data))
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
}

// Scenario 5: a blocked tool is rejected, never reaches the rate limiter,
// and is audited with status "blocked".
func TestProxyBlockedTool(t *testing.T) {
	cfg := Config{BlockedTools: []string{"delete_repo"}, RateLimit: 10, RateWindow: time.Minute}
	srv, _, auditPath := newTestServer(t, cfg, nil)

	resp := decodeResponse(t, srv.HandleLine(callRequest(t, "1", "delete_repo", map[string]interface{}{})))
	if resp.Error == nil || resp.Error.Code != CodePolicyDenied {
		t.Fatalf("expected policy denied, got %+v", resp.Error)
	}
	if resp.Error.Message != "Tool delete_repo is blocked by policy" {
		t.Fatalf("unexpected message: %q", resp.Error.Message)
	}

	records := readAuditRecords(t, auditPath)
	if len(records) != 1 || records[0].Status != audit.StatusBlocked {
		t.Fatalf("expected one blocked audit record, got %+v", records)
	}
}

// Scenario 6: three rapid calls against a rate limit of 2 per window yield
// two successes and one 429, with three audit records in order, the last
// marked rate_limited.
func TestProxyRateLimit(t *testing.T) {
	cfg := Config{RateLimit: 2, RateWindow: time.Minute}
	srv, _, auditPath := newTestServer(t, cfg, nil)

	var codes []int
	for i := 0; i < 3; i++ {
		resp := decodeResponse(t, srv.HandleLine(callRequest(t, "call", "search", map[string]interface{}{"q": "x"})))
		if resp.Error != nil {
			codes = append(codes, resp.Error.Code)
		} else {
			codes = append(codes, 0)
		}
	}

	if codes[0] != 0 || codes[1] != 0 {
		t.Fatalf("expected first two calls to succeed, got codes %v", codes)
	}
	if codes[2] != CodeRateLimited {
		t.Fatalf("expected third call rate limited, got codes %v", codes)
	}

	records := readAuditRecords(t, auditPath)
	if len(records) != 3 {
		t.Fatalf("expected 3 audit records, got %d", len(records))
	}
	if records[0].Status != audit.StatusSuccess || records[1].Status != audit.StatusSuccess {
		t.Fatalf("expected first two records success, got %+v", records)
	}
	if records[2].Status != audit.StatusRateLimited {
		t.Fatalf("expected third record rate_limited, got %+v", records[2])
	}
}

// Scenario 7: a vault reference is substituted into the response, a literal
// non-matching value passes through untouched, and a secret-shaped literal
// value is redacted even though it came from the caller rather than the
// vault. The audit record is "success".
func TestProxyReferenceResolutionAndRedaction(t *testing.T) {
	lookup := func(id string) (string, bool) {
		if id == "svc1" {
			return "sk-abcdefghijklmnopqrstuvwxyz012345", true
		}
		return "", false
	}
	cfg := Config{RateLimit: 10, RateWindow: time.Minute}
	srv, _, auditPath := newTestServer(t, cfg, lookup)

	args := map[string]interface{}{
		"key":     "{ref:svc1}",
		"literal": "plain-value",
	}
	line := srv.HandleLine(callRequest(t, "1", "search", args))

	resp := decodeResponse(t, line)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if containsSecretShape(string(line)) {
		t.Fatalf("response still contains an unredacted secret shape: %s", line)
	}
	if !containsLiteral(string(line), "plain-value") {
		t.Fatalf("expected literal value to pass through untouched: %s", line)
	}

	records := readAuditRecords(t, auditPath)
	if len(records) != 1 || records[0].Status != audit.StatusSuccess {
		t.Fatalf("expected one success audit record, got %+v", records)
	}
}

func TestProxyUnknownReferenceLeftUnchanged(t *testing.T) {
	cfg := Config{RateLimit: 10, RateWindow: time.Minute}
	srv, _, _ := newTestServer(t, cfg, nil)

	line := srv.HandleLine(callRequest(t, "1", "search", map[string]interface{}{"key": "{ref:missing}"}))
	if !containsLiteral(string(line), "{ref:missing}") {
		t.Fatalf("expected unresolved reference to remain literal: %s", line)
	}
}

func TestRedactionIsIdempotent(t *testing.T) {
	secret := "sk-abcdefghijklmnopqrstuvwxyz012345"
	once := Redact(secret)
	twice := Redact(once)
	if once != twice {
		t.Fatalf("redaction not idempotent: once=%q twice=%q", once, twice)
	}
	if once != Redacted {
		t.Fatalf("expected secret to be redacted, got %q", once)
	}
}

func containsSecretShape(s string) bool {
	for _, p := range redactionPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func containsLiteral(s, substr string) bool {
	return len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
