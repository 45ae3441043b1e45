package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/netbill/isp-billing/pkg/config"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Drivers lists the dialect folders every migration must exist in.
var Drivers = []string{config.DBDriverPostgres, config.DBDriverSQLite}

// ValidateDir checks a single dialect folder on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	_, err := versionsIn(os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}
	return nil
}

// ValidateRoot checks every dialect folder below root and requires both
// dialects to carry the same set of versions.
func ValidateRoot(root string) error {
	return validateTree(os.DirFS(root))
}

// ValidateEmbedded runs the same checks against the migrations compiled into the binary.
func ValidateEmbedded() error {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return err
	}
	return validateTree(sub)
}

func validateTree(fsys fs.FS) error {
	var reference []string
	for i, driver := range Drivers {
		sub, err := fs.Sub(fsys, driver)
		if err != nil {
			return err
		}
		versions, err := versionsIn(sub)
		if err != nil {
			return fmt.Errorf("%s: %w", driver, err)
		}
		if i == 0 {
			reference = versions
			continue
		}
		if missing := diffVersions(reference, versions); len(missing) > 0 {
			return fmt.Errorf("%s and %s disagree on versions %s", Drivers[0], driver, strings.Join(missing, ", "))
		}
	}
	return nil
}

func versionsIn(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(b), marker) {
				return nil, fmt.Errorf("migration %q missing %q", name, marker)
			}
		}
	}

	versions := make([]string, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions, nil
}

// diffVersions returns versions present in exactly one of a and b.
func diffVersions(a, b []string) []string {
	counts := map[string]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	var out []string
	for v, n := range counts {
		if n != 0 {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
