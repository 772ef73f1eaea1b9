package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"copymatch/config"
	"copymatch/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const essay = "The committee reviewed every submission received before the deadline and published its findings in the spring bulletin."

// execute runs the root command with args and returns its stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, `{"cache":{"enabled":false}}`)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		configPath, logLevel = "", ""
		compareJSON, compareScoreOnly, compareNoParagraphs = false, false, false
		compareEngine, compareAnnotate, compareNoCache = "", false, false
		configInitForce = false
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")

	assert.NoError(t, err)
	assert.Equal(t, "copymatch version test-version-1.0.0\n", out)
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[engine]", "engine table")
	assert.Contains(t, out, "[highlight]", "highlight table")
	assert.Contains(t, out, "local", "default engine")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path, "reports written path")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.EngineLocal, cfg.Engine.Type, "defaults round trip")

	_, err = execute(t, "config", "init", "--config", path)
	assert.Error(t, err, "existing file kept without --force")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	assert.NoError(t, err, "overwrite with --force")
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "version", "--config", filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestCompareScoreOnly(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "essay.txt", essay)
	b := writeFile(t, dir, "copy.txt", essay)

	out, err := execute(t, "compare", a, b, "--score-only")

	require.NoError(t, err)
	assert.Equal(t, "100.00\n", out)
}

func TestCompareJSON(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "essay.txt", essay)
	b := writeFile(t, dir, "copy.txt", essay)

	out, err := execute(t, "compare", a, b, "--json")
	require.NoError(t, err)

	var report types.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 100.0, report.OverallScore, "score")
	assert.Equal(t, "essay.txt", report.SourceFileName, "source name")
	assert.Equal(t, "copy.txt", report.TargetFileName, "target name")
	assert.Len(t, report.Highlights, 1, "one exact highlight")
}

func TestCompareText(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "essay.txt", essay)
	b := writeFile(t, dir, "copy.txt", essay)

	out, err := execute(t, "compare", a, b)

	require.NoError(t, err)
	assert.Contains(t, out, "essay.txt", "header names source")
	assert.Contains(t, out, "copy.txt", "header names target")
	assert.Contains(t, out, "100.00%", "score")
}

func TestCompareMissingFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "essay.txt", essay)

	_, err := execute(t, "compare", a, filepath.Join(dir, "absent.txt"))
	assert.Error(t, err)
}

func TestCompareRejectsUnknownEngine(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "essay.txt", essay)
	b := writeFile(t, dir, "copy.txt", essay)

	_, err := execute(t, "compare", a, b, "--engine", "quantum")
	assert.Error(t, err)
}

func TestApplyCompareFlags(t *testing.T) {
	defer func() { compareEngine, compareNoParagraphs = "", false }()
	compareNoParagraphs = true

	c, err := applyCompareFlags(config.Default())
	require.NoError(t, err)
	assert.False(t, c.Highlight.Paragraphs, "paragraphs disabled")

	compareEngine = config.EngineRemote
	_, err = applyCompareFlags(config.Default())
	assert.Error(t, err, "remote engine needs a url")
}
