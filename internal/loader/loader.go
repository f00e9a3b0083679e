// Package loader reads directories of desired-state files and produces
// normalized application definitions.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/reefctl-io/reefctl/internal/appdef"
	"github.com/reefctl-io/reefctl/internal/logging"
	"github.com/reefctl-io/reefctl/internal/schema"
)

// FileError records a single definition file that could not be loaded. The
// file is skipped; the load continues.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Conflict records two source files resolving to the same application name.
// The last-loaded source wins (catalog loads after compose).
type Conflict struct {
	Name    string
	Kept    string // origin path of the winning definition
	Dropped string // origin path of the shadowed definition
}

// Report is the outcome of a load: definitions in discovery order, plus the
// per-file errors and name conflicts encountered along the way.
type Report struct {
	Definitions []*appdef.Definition
	Errors      []FileError
	Conflicts   []Conflict
}

// Load reads both source directories. A missing directory contributes
// nothing; an administrator may legitimately supply only one of the two.
// Files are visited in sorted filename order, compose first, so repeated
// loads of unchanged directories produce identical reports.
func Load(composeDir, catalogDir string) (*Report, error) {
	rep := &Report{}
	byName := make(map[string]int) // name -> index into rep.Definitions

	if composeDir != "" {
		if err := loadDir(composeDir, appdef.SourceCompose, rep, byName); err != nil {
			return nil, err
		}
	}
	if catalogDir != "" {
		if err := loadDir(catalogDir, appdef.SourceCatalog, rep, byName); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

func loadDir(dir string, kind appdef.SourceKind, rep *Report, byName map[string]int) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Debug("definition directory absent, skipping", "dir", dir, "kind", kind)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read definition directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !hasDefinitionExt(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		def, err := loadFile(path, kind)
		if err != nil {
			logging.Warn("skipping definition file", "path", path, "error", err)
			rep.Errors = append(rep.Errors, FileError{Path: path, Err: err})
			continue
		}
		if idx, ok := byName[def.Name]; ok {
			rep.Conflicts = append(rep.Conflicts, Conflict{
				Name:    def.Name,
				Kept:    def.OriginPath,
				Dropped: rep.Definitions[idx].OriginPath,
			})
			rep.Definitions[idx] = def
			continue
		}
		byName[def.Name] = len(rep.Definitions)
		rep.Definitions = append(rep.Definitions, def)
	}
	return nil
}

func loadFile(path string, kind appdef.SourceKind) (*appdef.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("not valid YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("not valid JSON: %w", err)
		}
	}

	doc, ok := appdef.Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("must contain a top-level mapping")
	}

	def := &appdef.Definition{
		Source:     kind,
		Config:     doc,
		OriginPath: path,
	}
	switch kind {
	case appdef.SourceCatalog:
		if err := schema.ValidateCatalog(doc); err != nil {
			return nil, err
		}
		def.Name = doc["app_name"].(string)
	default:
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

func hasDefinitionExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
