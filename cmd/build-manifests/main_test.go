package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildManifests(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	out := filepath.Join(dir, "repo")
	writeFile(t, filepath.Join(source, "CrSt", "gdp", "2", "2020", "data.json"), `[]`)
	writeFile(t, filepath.Join(source, "EcSt", "heatmap", "trade", "2021", "data.json"), `[]`)
	writeFile(t, filepath.Join(source, "README.md"), "ignored")

	output, err := execute(t, "--source", source, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, output, "wrote 5 manifests")

	crst, err := os.ReadFile(filepath.Join(out, "CrSt", "manifest.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"CrSt:CrSt:gdp:2:2020": {"file": "repo/source/CrSt/gdp/2/2020/data.json"}}`, string(crst))

	ecst, err := os.ReadFile(filepath.Join(out, "EcSt", "manifest.json"))
	require.NoError(t, err)
	assert.Contains(t, string(ecst), `"EcSt:heatmap:trade:none:2021"`)

	latent, err := os.ReadFile(filepath.Join(out, "Latent", "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(latent))

	// Rebuilding an unchanged tree does not change a byte.
	_, err = execute(t, "--source", source, "--out", out)
	require.NoError(t, err)
	again, err := os.ReadFile(filepath.Join(out, "CrSt", "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, crst, again)
}

func TestBuildManifests_DryRunAndHints(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	out := filepath.Join(dir, "repo")
	hints := filepath.Join(dir, "hints.json")
	writeFile(t, filepath.Join(source, "StSp", "exports", "2", "2022", "data.json"), `{}`)
	writeFile(t, hints, `{"StSp:StSp:exports:2:2022": {"root": "rows", "cityKeys": ["il"]}}`)

	_, err := execute(t, "--source", source, "--out", out, "--hints", hints, "--dry-run")
	require.NoError(t, err)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "dry run must not write")

	_, err = execute(t, "--source", source, "--out", out, "--hints", hints)
	require.NoError(t, err)
	stsp, err := os.ReadFile(filepath.Join(out, "StSp", "manifest.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"StSp:StSp:exports:2:2022": {"file": "repo/source/StSp/exports/2/2022/data.json", "root": "rows", "cityKeys": ["il"]}}`, string(stsp))
}

func TestBuildManifests_MissingSource(t *testing.T) {
	_, err := execute(t, "--source", filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
