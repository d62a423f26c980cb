package migrations

import (
	"strings"
	"testing"
)

func TestStatements(t *testing.T) {
	tests := []struct {
		dir      string
		want     int
		contains string
	}{
		{dir: "mysql", want: 2, contains: "CREATE TABLE IF NOT EXISTS accounts"},
		{dir: "clickhouse", want: 2, contains: "txtcoin.command_events"},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			stmts, err := Statements(tt.dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(stmts) != tt.want {
				t.Fatalf("got %d statements, want %d", len(stmts), tt.want)
			}
			if !strings.Contains(strings.Join(stmts, "\n"), tt.contains) {
				t.Fatalf("missing %q", tt.contains)
			}
		})
	}
}

func TestSplitDropsBlanks(t *testing.T) {
	got := split("CREATE TABLE a (x INT);\n\n  ;CREATE TABLE b (y INT);\n")
	if len(got) != 2 || got[0] != "CREATE TABLE a (x INT)" || got[1] != "CREATE TABLE b (y INT)" {
		t.Fatalf("split = %q", got)
	}
}
