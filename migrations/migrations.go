// Package migrations embeds the schema files applied by `txtcoin migrate`.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed mysql/*.sql clickhouse/*.sql
var files embed.FS

// Statements returns the statements of every file under dir ("mysql" or
// "clickhouse") in file name order.
func Statements(dir string) ([]string, error) {
	names, err := fs.Glob(files, dir+"/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		b, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, split(string(b))...)
	}
	return out, nil
}

// split breaks a file on ";" line ends. The schema files carry no
// procedures or string literals containing semicolons.
func split(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
