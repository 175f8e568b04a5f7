package session

import "testing"

func TestFindStatementEndSimple(t *testing.T) {
	end, ok := findStatementEnd([]byte(`SELECT x FROM t;`))
	if !ok || end != len(`SELECT x FROM t;`) {
		t.Fatalf("got (%d, %v), want (%d, true)", end, ok, len(`SELECT x FROM t;`))
	}
}

func TestFindStatementEndIgnoresSemicolonInQuotedString(t *testing.T) {
	input := `INSERT INTO t (name) VALUES ("a;b");`
	end, ok := findStatementEnd([]byte(input))
	if !ok || end != len(input) {
		t.Fatalf("got (%d, %v), want (%d, true)", end, ok, len(input))
	}
}

func TestFindStatementEndIgnoresSemicolonInComment(t *testing.T) {
	input := "SELECT x -- drop everything; who knows\nFROM t;"
	end, ok := findStatementEnd([]byte(input))
	want := len(input)
	if !ok || end != want {
		t.Fatalf("got (%d, %v), want (%d, true)", end, ok, want)
	}
}

func TestFindStatementEndNoSemicolonYet(t *testing.T) {
	_, ok := findStatementEnd([]byte(`SELECT x FROM t`))
	if ok {
		t.Fatal("expected no statement end without a closing semicolon")
	}
}

func TestFindStatementEndHandlesEscapedQuote(t *testing.T) {
	input := `INSERT INTO t (name) VALUES ("a\"; b");`
	end, ok := findStatementEnd([]byte(input))
	if !ok || end != len(input) {
		t.Fatalf("got (%d, %v), want (%d, true)", end, ok, len(input))
	}
}
