// Package manifest handles mercury.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/TimothyDespair/mercury/engine"
)

// Manifest represents a mercury.toml project configuration.
type Manifest struct {
	Project  Project             `toml:"project"`
	Tabling  Tabling             `toml:"tabling"`
	Trace    Trace               `toml:"trace"`
	Override map[string]Override `toml:"override"`

	// Dir is the directory containing the mercury.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Tabling configures runtime-wide table behavior.
type Tabling struct {
	// MaxAnswers aborts evaluation when a single call records more answers.
	// Zero means unlimited.
	MaxAnswers int `toml:"max-answers"`
	// SnapshotDB is the SQLite file table snapshots are dumped to.
	SnapshotDB string `toml:"snapshot-db"`
}

// Trace configures execution tracing.
type Trace struct {
	Tables  bool `toml:"tables"`
	Machine bool `toml:"machine"`
}

// Override forces an evaluation method for one procedure, overriding
// whatever the transformed code registers. The key is "name/arity".
type Override struct {
	Method string `toml:"method"`
}

// Load parses a mercury.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "mercury.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	for key, o := range m.Override {
		if _, err := ParseEvalMethod(o.Method); err != nil {
			return nil, fmt.Errorf("override %q in %s: %w", key, path, err)
		}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a mercury.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "mercury.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ParseEvalMethod maps a manifest method name to an evaluation method.
func ParseEvalMethod(s string) (engine.EvalMethod, error) {
	switch s {
	case "loopcheck":
		return engine.EvalLoopcheck, nil
	case "memo":
		return engine.EvalMemoDet, nil
	case "memo-semidet":
		return engine.EvalMemoSemi, nil
	case "minimal-model":
		return engine.EvalMinimalModel, nil
	default:
		return 0, fmt.Errorf("unknown evaluation method %q", s)
	}
}

// MethodFor returns the evaluation method for a procedure: the override
// from the manifest if one names it, otherwise the declared default. A nil
// manifest always returns the default.
func (m *Manifest) MethodFor(id engine.ProcID, declared engine.EvalMethod) engine.EvalMethod {
	if m == nil {
		return declared
	}
	o, ok := m.Override[fmt.Sprintf("%s/%d", id.Name, id.Arity)]
	if !ok {
		return declared
	}
	method, err := ParseEvalMethod(o.Method)
	if err != nil {
		return declared
	}
	return method
}

// SnapshotDBPath returns the absolute path of the configured snapshot
// database, or the fallback when none is configured.
func (m *Manifest) SnapshotDBPath(fallback string) string {
	if m == nil || m.Tabling.SnapshotDB == "" {
		return fallback
	}
	if filepath.IsAbs(m.Tabling.SnapshotDB) {
		return m.Tabling.SnapshotDB
	}
	return filepath.Join(m.Dir, m.Tabling.SnapshotDB)
}
