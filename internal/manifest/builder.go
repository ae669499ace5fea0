package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/ekoatlas/data-api/internal/models"
	"go.uber.org/zap"
)

// DefaultFilePrefix is prepended to every file reference so entries resolve
// against the data root, where the source tree lives under repo/source.
const DefaultFilePrefix = "repo/source"

// Hint holds the optional per-key extraction overrides merged into built entries.
type Hint struct {
	Root     string   `json:"root,omitempty"`
	CityKeys []string `json:"cityKeys,omitempty"`
}

// BuildOptions configures a manifest build.
type BuildOptions struct {
	// FilePrefix is joined in front of each path relative to the source root.
	FilePrefix string
	// Hints are keyed by serialized manifest key.
	Hints  map[string]Hint
	Logger *zap.Logger
}

// BuildResult is the outcome of one walk over the source tree.
type BuildResult struct {
	Manifests  map[models.Section]models.Manifest
	Files      int
	Skipped    []string
	Duplicates []string
}

// Build walks fsys once and derives one key per data file. Directories are
// visited in lexical order, so when two files map to the same key the
// lexically first one is kept.
func Build(fsys fs.FS, opts BuildOptions) (*BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := opts.FilePrefix
	if prefix == "" {
		prefix = DefaultFilePrefix
	}

	result := &BuildResult{Manifests: make(map[models.Section]models.Manifest, len(models.Sections))}
	for _, section := range models.Sections {
		result.Manifests[section] = models.Manifest{}
	}

	err := fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isJSONFile(d.Name()) {
			return nil
		}

		key, ok := KeyFromPath(rel)
		if !ok {
			result.Skipped = append(result.Skipped, rel)
			logger.Debug("Skipping file outside directory convention", zap.String("path", rel))
			return nil
		}

		manifest := result.Manifests[key.Section]
		serialized := key.String()
		if existing, dup := manifest[serialized]; dup {
			result.Duplicates = append(result.Duplicates, rel)
			logger.Warn("Duplicate manifest key, keeping first file",
				zap.String("key", serialized),
				zap.String("kept", existing.File),
				zap.String("ignored", rel))
			return nil
		}

		entry := models.ManifestEntry{File: path.Join(prefix, rel)}
		if hint, ok := opts.Hints[serialized]; ok {
			entry.Root = hint.Root
			entry.CityKeys = hint.CityKeys
		}
		manifest[serialized] = entry
		result.Files++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source tree: %w", err)
	}

	for key := range opts.Hints {
		if !result.hasKey(key) {
			logger.Warn("Hint for unknown manifest key", zap.String("key", key))
		}
	}

	return result, nil
}

func (r *BuildResult) hasKey(serialized string) bool {
	k, ok := models.ParseKey(serialized)
	if !ok {
		return false
	}
	_, found := r.Manifests[k.Section][serialized]
	return found
}

// Encode serializes a manifest deterministically: keys sorted, two-space
// indent, trailing newline.
func Encode(m models.Manifest) ([]byte, error) {
	if m == nil {
		m = models.Manifest{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Documents encodes and validates every section manifest.
func (r *BuildResult) Documents() (map[models.Section][]byte, error) {
	docs := make(map[models.Section][]byte, len(r.Manifests))
	for _, section := range models.Sections {
		raw, err := Encode(r.Manifests[section])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s manifest: %w", section, err)
		}
		if err := Validate(raw); err != nil {
			return nil, fmt.Errorf("%s manifest: %w", section, err)
		}
		docs[section] = raw
	}
	return docs, nil
}

// Write stores each section manifest at <outDir>/<Section>/manifest.json.
func (r *BuildResult) Write(outDir string) error {
	docs, err := r.Documents()
	if err != nil {
		return err
	}
	for _, section := range models.Sections {
		dir := filepath.Join(outDir, string(section))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		target := filepath.Join(dir, "manifest.json")
		if err := os.WriteFile(target, docs[section], 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
	}
	return nil
}

// LoadHints reads a hints document: an object keyed by manifest key.
func LoadHints(file string) (map[string]Hint, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read hints file: %w", err)
	}
	hints := make(map[string]Hint)
	if err := json.Unmarshal(raw, &hints); err != nil {
		return nil, fmt.Errorf("failed to parse hints JSON: %w", err)
	}
	return hints, nil
}
