// Package session turns one client connection's byte stream into a
// sequence of executed statements. It owns statement segmentation (finding
// the first unquoted, non-commented ";"), BEGIN/END transaction batching,
// and rendering results back onto the connection in the wire protocol's
// text form.
package session

import (
	"bufio"
	"io"
	"strings"

	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/dbms"
	"github.com/bobboyms/algebraicdb/pkg/errors"
	"github.com/bobboyms/algebraicdb/pkg/executor"
	"github.com/bobboyms/algebraicdb/pkg/parser"
	"github.com/google/uuid"
)

// Logf is how a session reports its lifecycle to the operator, in
// fmt.Printf style (no framework). Run discards every line when it is nil.
type Logf func(format string, args ...any)

// Run reads statements from r until EOF or a stream error, executing each
// against db and writing results to w. The session id is included in log
// lines only; it is never sent over the wire, which carries exactly the
// text protocol documented for the network listener.
func Run(r io.Reader, w io.Writer, db *dbms.DB, logf Logf) error {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	id := uuid.Must(uuid.NewV7())
	logf("session [%s] started", id)

	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)

	var inTransaction bool
	var txStmts []ast.Stmt
	var txTexts []string

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				logf("session [%s] closed", id)
				return nil
			}
			logf("session [%s] read error: %v", id, err)
			return err
		}

		for {
			end, ok := findStatementEnd(buf)
			if !ok {
				break
			}
			text := strings.TrimSpace(string(buf[:end-1]))
			buf = buf[end:]
			if text == "" {
				continue
			}

			switch {
			case strings.EqualFold(text, "BEGIN"):
				if inTransaction {
					bw.WriteString("error: transaction already in progress\n")
					bw.Flush()
					continue
				}
				inTransaction = true
				txStmts, txTexts = nil, nil

			case strings.EqualFold(text, "END"):
				if !inTransaction {
					bw.WriteString("error: no transaction in progress\n")
					bw.Flush()
					continue
				}
				inTransaction = false
				results, err := db.RunTransaction(txStmts, txTexts)
				if err != nil {
					bw.WriteString(errors.Render(strings.Join(txTexts, "; "), err))
				} else {
					for _, res := range results {
						writeResult(bw, res)
					}
				}
				txStmts, txTexts = nil, nil
				bw.Flush()

			default:
				stmt, perr := parser.ParseStmt(text)
				if perr != nil {
					bw.WriteString(errors.Render(text, perr))
					bw.Flush()
					if inTransaction {
						inTransaction = false
						txStmts, txTexts = nil, nil
					}
					continue
				}

				if inTransaction {
					txStmts = append(txStmts, stmt)
					txTexts = append(txTexts, text)
					continue
				}

				res, err := db.ExecuteStmt(stmt, text)
				if err != nil {
					bw.WriteString(errors.Render(text, err))
				} else {
					writeResult(bw, res)
				}
				bw.Flush()
			}
		}
	}
}

func writeResult(w *bufio.Writer, res executor.Result) {
	if res.Message != "" {
		w.WriteString(res.Message)
		return
	}
	for _, row := range res.Rows {
		w.WriteByte('[')
		for i, cell := range row {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(cell)
		}
		w.WriteString("]\n")
	}
}

// findStatementEnd scans buf for the first ";" outside a quoted string or
// a "--" line comment, returning the index just past it. Character-class
// driven rather than regex-driven, the same idiom pkg/lexer tokenizes
// with — this is the segmentation half of the TUI client's tokenizer
// (original_source/adbcat/src/tokenizer.rs), repurposed server-side:
// finding statement boundaries, not highlighting them.
func findStatementEnd(buf []byte) (int, bool) {
	i := 0
	n := len(buf)
	for i < n {
		c := buf[i]
		switch {
		case c == '"':
			i++
			for i < n {
				if buf[i] == '\\' && i+1 < n {
					i += 2
					continue
				}
				if buf[i] == '"' {
					i++
					break
				}
				i++
			}
		case c == '-' && i+1 < n && buf[i+1] == '-':
			for i < n && buf[i] != '\n' {
				i++
			}
		case c == ';':
			return i + 1, true
		default:
			i++
		}
	}
	return 0, false
}
