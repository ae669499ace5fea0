package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/ekoatlas/data-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceTree() fstest.MapFS {
	file := &fstest.MapFile{Data: []byte(`[]`)}
	return fstest.MapFS{
		"CrSt/export/2/2019/data.json":               file,
		"CrSt/export/2/2020/data.json":               file,
		"CrSt/export/2/2020/notes.txt":               file,
		"EcSt/pie/trade/4/2020/data.json":            file,
		"EcSt/timeline/trade/4/data.json":            file,
		"EcSt/heatmap/trade/2019/data.json":          file,
		"StSp/energy/2/2018/data.json":               file,
		"StSp/energy/2/2019/data.json":               file,
		"StSp/energy/2/2019/z-copy.json":             file,
		"PrSp/PrSpaceGTIP/export/6/2021/data.json":   file,
		"Latent/Latent2/employment/2/2017/data.json": file,
		"Latent/Latent9/employment/2/2017/data.json": file,
		"misc/data.json":                             file,
	}
}

func TestBuild(t *testing.T) {
	result, err := Build(sourceTree(), BuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, 9, result.Files)
	assert.ElementsMatch(t, []string{"Latent/Latent9/employment/2/2017/data.json", "misc/data.json"}, result.Skipped)
	assert.Equal(t, []string{"StSp/energy/2/2019/z-copy.json"}, result.Duplicates)

	assert.Len(t, result.Manifests, len(models.Sections))
	assert.Len(t, result.Manifests[models.SectionCurrentStatus], 2)
	assert.Len(t, result.Manifests[models.SectionEconomicStructure], 3)

	entry := result.Manifests[models.SectionEconomicStructure]["EcSt:heatmap:trade:none:2019"]
	assert.Equal(t, "repo/source/EcSt/heatmap/trade/2019/data.json", entry.File)

	kept := result.Manifests[models.SectionStateSpace]["StSp:StSp:energy:2:2019"]
	assert.Equal(t, "repo/source/StSp/energy/2/2019/data.json", kept.File)
}

func TestBuild_HintsAndPrefix(t *testing.T) {
	result, err := Build(sourceTree(), BuildOptions{
		FilePrefix: "data",
		Hints: map[string]Hint{
			"CrSt:CrSt:export:2:2019": {Root: "data.rows", CityKeys: []string{"province"}},
			"CrSt:CrSt:export:2:1990": {Root: "x"},
		},
	})
	require.NoError(t, err)

	entry := result.Manifests[models.SectionCurrentStatus]["CrSt:CrSt:export:2:2019"]
	assert.Equal(t, "data/CrSt/export/2/2019/data.json", entry.File)
	assert.Equal(t, "data.rows", entry.Root)
	assert.Equal(t, []string{"province"}, entry.CityKeys)

	_, ok := result.Manifests[models.SectionCurrentStatus]["CrSt:CrSt:export:2:1990"]
	assert.False(t, ok)
}

func TestBuild_Deterministic(t *testing.T) {
	first, err := Build(sourceTree(), BuildOptions{})
	require.NoError(t, err)
	second, err := Build(sourceTree(), BuildOptions{})
	require.NoError(t, err)

	a, err := first.Documents()
	require.NoError(t, err)
	b, err := second.Documents()
	require.NoError(t, err)

	for _, section := range models.Sections {
		assert.Equal(t, a[section], b[section], "section %s", section)
	}
}

func TestBuildResult_Write(t *testing.T) {
	result, err := Build(sourceTree(), BuildOptions{})
	require.NoError(t, err)

	out := t.TempDir()
	require.NoError(t, result.Write(out))
	firstRun, err := os.ReadFile(filepath.Join(out, "CrSt", "manifest.json"))
	require.NoError(t, err)

	require.NoError(t, result.Write(out))
	secondRun, err := os.ReadFile(filepath.Join(out, "CrSt", "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, firstRun, secondRun)

	assert.Equal(t, `{
  "CrSt:CrSt:export:2:2019": {
    "file": "repo/source/CrSt/export/2/2019/data.json"
  },
  "CrSt:CrSt:export:2:2020": {
    "file": "repo/source/CrSt/export/2/2020/data.json"
  }
}
`, string(firstRun))

	prsp, err := os.ReadFile(filepath.Join(out, "PrSp", "manifest.json"))
	require.NoError(t, err)
	assert.Contains(t, string(prsp), "PrSp:PrSpaceGTIP:export:6:2021")
}

func TestEncode_Empty(t *testing.T) {
	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(raw))
}

func TestLoadHints(t *testing.T) {
	file := filepath.Join(t.TempDir(), "hints.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"CrSt:CrSt:a:1:2019":{"root":"rows"}}`), 0o644))

	hints, err := LoadHints(file)
	require.NoError(t, err)
	assert.Equal(t, "rows", hints["CrSt:CrSt:a:1:2019"].Root)

	require.NoError(t, os.WriteFile(file, []byte(`{bad`), 0o644))
	_, err = LoadHints(file)
	assert.ErrorContains(t, err, "failed to parse hints JSON")
}
