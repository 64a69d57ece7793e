package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupCLIHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ETYMON_API_KEYS", "test-key")
	return home
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	setupCLIHome(t)

	out, err := runCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// Re-running without --overwrite refuses to clobber.
	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	setupCLIHome(t)

	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "test-key") {
		t.Fatalf("api key leaked into output:\n%s", out)
	}
	requireContains(t, out, "[provider]")
}

func TestLeaderboardEmpty(t *testing.T) {
	setupCLIHome(t)

	out, err := runCLI(t, "leaderboard")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	requireContains(t, out, "No users yet")
}

func TestStatsUnknownUser(t *testing.T) {
	setupCLIHome(t)

	if _, err := runCLI(t, "stats", "ghost"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Rank", "User"},
		[][]string{{"1", "ada"}, {"2", "grace"}},
		[]columnAlignment{alignRight, alignLeft},
	)
	requireContains(t, out, "Rank")
	requireContains(t, out, "grace")
}
