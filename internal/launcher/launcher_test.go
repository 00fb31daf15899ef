package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vaultgate/vaultgate/internal/crypto"
	"github.com/vaultgate/vaultgate/internal/vault"
)

// TestHelperProcess is not a real test. It is invoked as the "agent"
// process by the Launch tests below, the classic os/exec test pattern:
// the test binary re-executes itself with GO_WANT_HELPER_PROCESS=1 and a
// -test.run filter that selects only this function.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	for _, name := range strings.Split(os.Getenv("HELPER_WANT_VARS"), ",") {
		if name == "" {
			continue
		}
		fmt.Printf("%s=%s\n", name, os.Getenv(name))
	}
	os.Exit(0)
}

func helperAgentCommand() []string {
	return []string{os.Args[0], "-test.run=TestHelperProcess", "--"}
}

func withHelperProcessEnv(t *testing.T, wantVars string) {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv("HELPER_WANT_VARS", wantVars)
}

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := crypto.RandomKey()
	if err != nil {
		t.Fatalf("RandomKey: %v", err)
	}
	return key
}

func TestLaunchInjectsResolvedReferenceAndStripsProfile(t *testing.T) {
	dir := t.TempDir()
	vaultPath := filepath.Join(dir, "vault.json")
	key := testKey(t)

	v, err := vault.Open(key, vaultPath)
	if err != nil {
		t.Fatalf("vault.Open: %v", err)
	}
	rec, err := v.Import("openai", "api_key", "sk-realsecretvalue0123456789")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	profilePath := filepath.Join(dir, "profile.yaml")
	profileYAML := fmt.Sprintf("agent-one:\n  type: api_key\n  provider: openai\n  key: \"vaultgate:vault:%s\"\n", rec.ID)
	if err := os.WriteFile(profilePath, []byte(profileYAML), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	synthetic := syntheticEnvName(DefaultEnvPrefix, rec.ID)
	withHelperProcessEnv(t, synthetic+",OPENAI_API_KEY")

	l := New(v, "", nil)
	code, err := l.Launch(profilePath, helperAgentCommand())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	rewritten, err := LoadProfile(profilePath)
	if err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if rewritten["agent-one"].Key != "" {
		t.Fatalf("expected key field stripped, got %q", rewritten["agent-one"].Key)
	}
	if rewritten["agent-one"].Provider != "openai" {
		t.Fatalf("expected provider field preserved, got %q", rewritten["agent-one"].Provider)
	}

	if _, err := os.Stat(profilePath + ".bak"); err != nil {
		t.Fatalf("expected backup file to exist: %v", err)
	}

	for _, ev := range l.exported {
		for _, b := range ev.value {
			if b != 0 {
				t.Fatalf("expected exported value %q to be zeroed after Launch, found nonzero byte", ev.name)
			}
		}
	}
}

func TestLaunchMissingCredentialLeavesEnvUnsetAndWarns(t *testing.T) {
	dir := t.TempDir()
	vaultPath := filepath.Join(dir, "vault.json")
	key := testKey(t)

	v, err := vault.Open(key, vaultPath)
	if err != nil {
		t.Fatalf("vault.Open: %v", err)
	}

	profilePath := filepath.Join(dir, "profile.yaml")
	profileYAML := "agent-one:\n  type: api_key\n  provider: openai\n  key: \"vaultgate:vault:cred_openai_api_key_dead\"\n"
	if err := os.WriteFile(profilePath, []byte(profileYAML), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	withHelperProcessEnv(t, "")

	l := New(v, "", nil)
	code, err := l.Launch(profilePath, helperAgentCommand())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if len(l.exported) != 0 {
		t.Fatalf("expected no exported values for a missing credential, got %v", l.exported)
	}
}

func TestLaunchNoCommandIsError(t *testing.T) {
	dir := t.TempDir()
	key := testKey(t)
	v, err := vault.Open(key, filepath.Join(dir, "vault.json"))
	if err != nil {
		t.Fatalf("vault.Open: %v", err)
	}

	l := New(v, "", nil)
	if _, err := l.Launch(filepath.Join(dir, "missing.yaml"), nil); err != ErrNoCommand {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}

func TestStripSecretKeysHandlesLegacyForm(t *testing.T) {
	profile := Profile{
		"legacy": ProfileEntry{Type: "api_key", Key: "${OPENAI_API_KEY}"},
		"plain":  ProfileEntry{Type: "api_key", Key: "not-a-reference"},
	}
	stripped := profile.StripSecretKeys()
	if stripped["legacy"].Key != "" {
		t.Fatalf("expected legacy form stripped, got %q", stripped["legacy"].Key)
	}
	if stripped["plain"].Key != "not-a-reference" {
		t.Fatalf("expected non-reference key preserved, got %q", stripped["plain"].Key)
	}
}
