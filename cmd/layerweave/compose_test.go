package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layerweave/internal/report"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestComposeCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "core", "agents", "G.md"),
		"<!-- SECTION: tdd -->\nTest first\n<!-- /SECTION: tdd -->\n")
	writeFile(t, filepath.Join(root, "packs", "vitest", "agents", "G.md"),
		"<!-- EXTEND: tdd -->\nUse vitest\n<!-- /EXTEND: tdd -->\n")
	writeFile(t, filepath.Join(root, "layerweave.yaml"),
		"packs:\n  - vitest\ncategories:\n  - agents\n")

	reportFile := filepath.Join(root, "report.json")
	rootCmd.SetArgs([]string{"compose", "--root", root, "--report", reportFile})
	require.NoError(t, rootCmd.Execute())

	out, err := os.ReadFile(filepath.Join(root, ".layerweave", "out", "agents", "G.md"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Test first\nUse vitest")

	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	var s report.Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.True(t, s.Success)
	assert.Len(t, s.FilesWritten, 1)
}

func TestComposeCommand_ErrorsExitNonZero(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "core", "agents", "a.md"),
		"{{include:missing.md}}\n")

	reportFile := filepath.Join(root, "report.json")
	rootCmd.SetArgs([]string{"compose", "--root", root, "--report", reportFile})
	assert.Error(t, rootCmd.Execute())

	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	var s report.Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.False(t, s.Success)
	assert.NotEmpty(t, s.Errors)
}
