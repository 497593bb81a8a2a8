package sqlstore

import "testing"

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	got := pg.rebind(`SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?`)
	if want := `SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $3`; got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	lite := &Store{dialect: SQLite}
	q := `SELECT a FROM t WHERE b = ?`
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite queries should be left alone, got %q", got)
	}
}

func TestParseScores(t *testing.T) {
	s, err := parseScores("[-1.5,-2,-3,-4,-50]")
	if err != nil {
		t.Fatalf("parseScores: %v", err)
	}
	if s[0] != -1.5 || s[4] != -50 {
		t.Errorf("parseScores = %v", s)
	}
	if _, err := parseScores("not json"); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}
