package fabric

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
)

// LoadUnits loads every configuration unit under path. A plain file is
// parsed as a single unit; a directory is scanned recursively for
// "*.toml" files, each parsed as its own unit, matching the teacher's
// file-or-directory config loading convention generalized to a recursive
// glob instead of a flat read_dir. In a directory, a malformed unit is
// skipped rather than failing the whole load; onSkip, if non-nil, is
// called once per skipped file so the caller can surface it through the
// console. A plain file that fails to parse is returned as an error.
func LoadUnits(path string, onSkip func(path string, err error)) ([]ConfigUnit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fabric: stat %s: %w", path, err)
	}

	if !info.IsDir() {
		unit, err := parseUnit(path)
		if err != nil {
			return nil, err
		}
		return []ConfigUnit{unit}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(path), "**/*.toml")
	if err != nil {
		return nil, fmt.Errorf("fabric: glob %s: %w", path, err)
	}

	units := make([]ConfigUnit, 0, len(matches))
	for _, rel := range matches {
		full := filepath.Join(path, rel)
		unit, err := parseUnit(full)
		if err != nil {
			if onSkip != nil {
				onSkip(full, err)
			}
			continue
		}
		units = append(units, unit)
	}
	return units, nil
}

func parseUnit(path string) (ConfigUnit, error) {
	var unit ConfigUnit
	if _, err := toml.DecodeFile(path, &unit); err != nil {
		return ConfigUnit{}, fmt.Errorf("fabric: decode unit %s: %w", path, err)
	}
	return unit, nil
}
