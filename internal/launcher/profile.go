package launcher

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ProfileEntry is one named entry in an auth profile file.
type ProfileEntry struct {
	Type     string `yaml:"type"`
	Provider string `yaml:"provider,omitempty"`
	Key      string `yaml:"key,omitempty"`
}

// Profile is a named map of auth profile entries, the on-disk shape the
// launcher scans and rewrites.
type Profile map[string]ProfileEntry

// vaultRefPattern matches the current reference form `<prefix>:vault:<id>`.
var vaultRefPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+:vault:(.+)$`)

// legacyEnvPattern matches the older `${ENVNAME}` form a profile's key field
// could hold before reference ids existed.
var legacyEnvPattern = regexp.MustCompile(`^\$\{([A-Za-z0-9_]+)\}$`)

// parseVaultRef extracts the reference id from a key value in the current
// vault-reference form. ok is false for any other shape, including the
// legacy form.
func parseVaultRef(key string) (id string, ok bool) {
	m := vaultRefPattern.FindStringSubmatch(key)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// isDeletableKey reports whether a key field must be stripped from the
// profile on rewrite: either form of secret reference, current or legacy.
func isDeletableKey(key string) bool {
	return vaultRefPattern.MatchString(key) || legacyEnvPattern.MatchString(key)
}

// LoadProfile reads and parses a YAML auth profile file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("launcher: read profile %s: %w", path, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("launcher: parse profile %s: %w", path, err)
	}
	return profile, nil
}

// BackupProfile copies the profile at path to a ".bak" sibling, overwriting
// any existing backup. It must be called before the profile is rewritten.
func BackupProfile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("launcher: open profile for backup: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path+".bak", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("launcher: create backup file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("launcher: write backup file: %w", err)
	}
	return nil
}

// RestoreBackup overwrites the profile at path with its ".bak" sibling, used
// only when a caller explicitly asks to roll back a rewrite.
func RestoreBackup(path string) error {
	backupPath := path + ".bak"
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("launcher: read backup %s: %w", backupPath, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("launcher: restore %s: %w", path, err)
	}
	return nil
}

// StripSecretKeys returns a copy of the profile with every deletable key
// field removed, leaving every other field (type, provider, and any
// unrecognized field round-tripped through the map) untouched.
func (p Profile) StripSecretKeys() Profile {
	out := make(Profile, len(p))
	for name, entry := range p {
		if isDeletableKey(entry.Key) {
			entry.Key = ""
		}
		out[name] = entry
	}
	return out
}

// Save writes the profile back to path as YAML with owner-only permission.
func (p Profile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("launcher: marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("launcher: write profile %s: %w", path, err)
	}
	return nil
}
