package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Pair is a freshly scaffolded up/down migration file pair.
type Pair struct {
	Version  string
	UpPath   string
	DownPath string
}

// Create scaffolds an empty up/down SQL pair in dir, named like the existing
// shop migrations: <timestamp>_<snake_name>.up.sql.
func Create(dir, name string) (*Pair, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	version := time.Now().Format("20060102150405")
	base := version + "_" + slugify(name)

	p := &Pair{
		Version:  version,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	header := fmt.Sprintf("-- %s\n\n", name)
	if err := os.WriteFile(p.UpPath, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", p.UpPath, err)
	}
	if err := os.WriteFile(p.DownPath, []byte(header), 0o644); err != nil {
		_ = os.Remove(p.UpPath)
		return nil, fmt.Errorf("write %s: %w", p.DownPath, err)
	}
	return p, nil
}

// slugify lowercases the name and collapses everything that is not
// alphanumeric into single underscores.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			s := b.String()
			if s != "" && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// List returns the migration base names found in dir, oldest first
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}
