package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/leengari/atomdb/internal/engine"
	"gotest.tools/v3/assert"
)

type stubEngine struct {
	*engine.Engine
	reloadErr error
	saveErr   error
	reloads   int
	saves     int
}

func (s *stubEngine) Reload() error { s.reloads++; return s.reloadErr }
func (s *stubEngine) Save() error   { s.saves++; return s.saveErr }

func handle(t *testing.T, s *Session, line string) (string, bool) {
	t.Helper()
	var buf bytes.Buffer
	done := s.Handle(&buf, line)
	return buf.String(), done
}

func TestHandleCommands(t *testing.T) {
	s := New("test", engine.New(nil, nil), nil)

	out, done := handle(t, s, "CREATE TABLE users (id, name)")
	assert.Assert(t, !done)
	assert.Equal(t, out, "Table 'users' created successfully\n")

	out, _ = handle(t, s, "INSERT INTO users (id=1, name=Zoe)")
	assert.Equal(t, out, "Row inserted with ID: 0\n")

	out, _ = handle(t, s, "SELECT * FROM users")
	assert.Assert(t, strings.HasPrefix(out, "Results from table 'users':\n"), out)
	assert.Assert(t, strings.HasSuffix(out, "(1 rows)\n"), out)

	out, _ = handle(t, s, "DROP TABLE users")
	assert.Equal(t, out, "Table 'users' dropped successfully\n")
}

func TestHandleErrorsAreOneLine(t *testing.T) {
	s := New("test", engine.New(nil, nil), nil)

	for _, line := range []string{"SELECT * FROM ghost", "CREATE foo", "FROBNICATE now"} {
		out, done := handle(t, s, line)
		assert.Assert(t, !done)
		assert.Assert(t, strings.HasPrefix(out, "Error: "), out)
		assert.Equal(t, strings.Count(out, "\n"), 1, out)
	}
}

func TestHandleBlankAndQuit(t *testing.T) {
	s := New("test", engine.New(nil, nil), nil)

	out, done := handle(t, s, "   ")
	assert.Equal(t, out, "")
	assert.Assert(t, !done)

	for _, q := range []string{"quit", "EXIT", " Quit "} {
		out, done = handle(t, s, q)
		assert.Equal(t, out, "")
		assert.Assert(t, done, q)
	}
}

func TestHandleHelp(t *testing.T) {
	s := New("test", engine.New(nil, nil), nil)
	out, _ := handle(t, s, "HELP")
	assert.Assert(t, strings.Contains(out, "SHOW TABLES"))
}

func TestHandleLoadAndSave(t *testing.T) {
	stub := &stubEngine{Engine: engine.New(nil, nil)}
	s := New("test", stub, nil)

	out, _ := handle(t, s, "load")
	assert.Equal(t, out, "Database loaded successfully\n")
	out, _ = handle(t, s, "save")
	assert.Equal(t, out, "Database saved successfully\n")
	assert.Equal(t, stub.reloads, 1)
	assert.Equal(t, stub.saves, 1)

	stub.reloadErr = errors.New("boom")
	stub.saveErr = errors.New("disk\nfull")
	out, _ = handle(t, s, "load")
	assert.Equal(t, out, "Error: boom\n")
	out, _ = handle(t, s, "save")
	assert.Equal(t, out, "Error: disk full\n")
}

func TestScannerLimits(t *testing.T) {
	long := strings.Repeat("a", 200000)
	scanner := NewScanner(strings.NewReader(long + "\n" + strings.Repeat("b", MaxLineBytes+1) + "\n"))

	assert.Assert(t, scanner.Scan())
	assert.Equal(t, len(scanner.Text()), len(long))

	assert.Assert(t, !scanner.Scan())
	var buf bytes.Buffer
	assert.Assert(t, WriteScanError(&buf, scanner.Err()))
	assert.Equal(t, buf.String(), fmt.Sprintf("Error: command too long (limit %d bytes)\n", MaxLineBytes))

	buf.Reset()
	assert.Assert(t, !WriteScanError(&buf, nil))
	assert.Assert(t, !WriteScanError(&buf, io.ErrUnexpectedEOF))
	assert.Equal(t, buf.Len(), 0)
}
