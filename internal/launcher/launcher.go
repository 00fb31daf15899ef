// Package launcher implements the credential-injection launcher (C5): it
// scans an auth profile for vault references, loads the referenced
// plaintext, strips the profile of every secret-bearing key field, spawns
// the wrapped agent with the plaintext injected as environment variables,
// and zeroizes every exported value on exit.
package launcher

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"

	"github.com/vaultgate/vaultgate/internal/crypto"
	"github.com/vaultgate/vaultgate/internal/vault"
)

// exportedValue is one plaintext value injected into the agent's
// environment, kept around only so Cleanup can zero it.
type exportedValue struct {
	name  string
	value []byte
}

// Launcher ties a vault to the profile-scan-and-spawn workflow.
type Launcher struct {
	Vault     *vault.Vault
	EnvPrefix string
	Logger    *slog.Logger

	once     sync.Once
	exported []exportedValue
}

// New constructs a Launcher. An empty envPrefix defaults to
// DefaultEnvPrefix. A nil logger discards warnings.
func New(v *vault.Vault, envPrefix string, logger *slog.Logger) *Launcher {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Launcher{Vault: v, EnvPrefix: envPrefix, Logger: logger}
}

// resolve loads the profile, resolves every vault reference it finds into
// an in-memory exported value, and returns the profile unchanged (the
// caller rewrites it separately so the two steps stay independently
// testable).
func (l *Launcher) resolve(profile Profile) []exportedValue {
	var exported []exportedValue

	for name, entry := range profile {
		id, ok := parseVaultRef(entry.Key)
		if !ok {
			continue
		}

		_, plaintext, err := l.Vault.Get(id)
		if err != nil {
			l.Logger.Warn("credential not found for profile entry, leaving env var unset",
				"profile_entry", name, "reference_id", id, "error", err)
			continue
		}

		exported = append(exported, exportedValue{name: syntheticEnvName(l.EnvPrefix, id), value: plaintext})
		if names, ok := providerEnvNames[entry.Provider]; ok {
			for _, envName := range names {
				exported = append(exported, exportedValue{name: envName, value: append([]byte(nil), plaintext...)})
			}
		}
	}

	return exported
}

// Launch loads profilePath, resolves its vault references, rewrites the
// profile to remove every secret key field (after backing it up), spawns
// command with the resolved values injected as environment variables and
// stdio inherited, forwards SIGINT/SIGTERM to it, and returns its exit
// code once it exits. Cleanup (zeroizing every exported value) runs
// exactly once, regardless of how Launch returns.
func (l *Launcher) Launch(profilePath string, command []string) (int, error) {
	if len(command) == 0 {
		return 1, ErrNoCommand
	}

	profile, err := LoadProfile(profilePath)
	if err != nil {
		return 1, fmt.Errorf("launcher: load profile: %w", err)
	}

	l.exported = l.resolve(profile)
	defer l.Cleanup()

	if err := BackupProfile(profilePath); err != nil {
		return 1, fmt.Errorf("launcher: backup profile: %w", err)
	}
	if err := profile.StripSecretKeys().Save(profilePath); err != nil {
		return 1, fmt.Errorf("launcher: rewrite profile: %w", err)
	}

	childEnv := os.Environ()
	for _, ev := range l.exported {
		childEnv = append(childEnv, ev.name+"="+string(ev.value))
	}

	child := exec.Command(command[0], command[1:]...)
	child.Env = childEnv
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, gracefulSignals()...)
	defer signal.Stop(sigCh)

	if err := child.Start(); err != nil {
		return 1, fmt.Errorf("launcher: start agent: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				_ = forwardSignal(child.Process, sig)
			case <-done:
				return
			}
		}
	}()

	waitErr := child.Wait()
	close(done)

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("launcher: agent exited abnormally: %w", waitErr)
	}
	return 0, nil
}

// Cleanup zeroizes every plaintext value this launcher exported. It is
// idempotent and safe to call more than once (directly, from a signal
// handler, or deferred from Launch).
func (l *Launcher) Cleanup() {
	l.once.Do(func() {
		for _, ev := range l.exported {
			crypto.Zero(ev.value)
		}
	})
}
