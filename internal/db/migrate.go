package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies every .sql file in lexical order. A directory on
// disk overrides the embedded set (used by deployments that patch the
// schema without rebuilding).
func RunMigrations(db *sql.DB, migrationsDir string) error {
	names, read, err := migrationSource(migrationsDir)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := read(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if len(data) == 0 {
			continue
		}
		if _, err := db.Exec(string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}
	return nil
}

func migrationSource(dir string) ([]string, func(string) ([]byte, error), error) {
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err == nil {
			return sqlNames(entries), func(name string) ([]byte, error) {
				return os.ReadFile(dir + "/" + name)
			}, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("read migrations dir: %w", err)
		}
	}
	entries, err := embeddedMigrations.ReadDir("migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	return sqlNames(entries), func(name string) ([]byte, error) {
		return embeddedMigrations.ReadFile("migrations/" + name)
	}, nil
}

func sqlNames(entries []fs.DirEntry) []string {
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n := e.Name(); len(n) > 4 && n[len(n)-4:] == ".sql" {
			names = append(names, n)
		}
	}
	return names
}
