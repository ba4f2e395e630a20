// Package session implements the line protocol shared by the interactive
// shell and the TCP front end.
package session

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/executor"
)

// HelpText lists the supported commands
const HelpText = `Commands:
  CREATE TABLE <name> (col1, col2, ...)
  INSERT INTO <name> (col1=val1, col2=val2, ...)
  SELECT * FROM <name> [WHERE col=val]
  DESCRIBE <name>
  SHOW TABLES
  DROP TABLE <name>
  load    reload the database from its snapshot
  save    write a snapshot now
  help    show this message
  quit    end the session (also: exit)
Values containing spaces or , ( ) = ; can be quoted: name='Ann Lee'`

// MaxLineBytes bounds a single command line
const MaxLineBytes = 1 << 20

// NewScanner returns a line scanner that accepts commands up to MaxLineBytes
func NewScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return scanner
}

// WriteScanError writes the client-facing error line for a read failure.
// It reports false when the failure is not the client's doing.
func WriteScanError(w io.Writer, err error) bool {
	if !stderrors.Is(err, bufio.ErrTooLong) {
		return false
	}
	fmt.Fprintf(w, "Error: command too long (limit %d bytes)\n", MaxLineBytes)
	return true
}

// Engine is the subset of the engine a session drives
type Engine interface {
	Execute(command string) (*executor.Result, error)
	Reload() error
	Save() error
}

// Session is one front-end conversation
type Session struct {
	ID     string
	eng    Engine
	logger *slog.Logger
}

// New creates a session. A nil logger uses slog.Default.
func New(id string, eng Engine, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{ID: id, eng: eng, logger: logger.With(slog.String("session", id))}
}

// IsQuit reports whether the line ends the session
func IsQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit", `\q`:
		return true
	}
	return false
}

// Handle processes one input line and writes the response to w.
// It returns true when the line asks to end the session; nothing is
// written in that case so each transport can say goodbye its own way.
func (s *Session) Handle(w io.Writer, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if IsQuit(line) {
		return true
	}

	switch strings.ToLower(line) {
	case "help":
		fmt.Fprintln(w, HelpText)
		return false
	case "load":
		if err := s.eng.Reload(); err != nil {
			s.writeError(w, line, err)
			return false
		}
		fmt.Fprintln(w, "Database loaded successfully")
		return false
	case "save":
		if err := s.eng.Save(); err != nil {
			s.writeError(w, line, err)
			return false
		}
		fmt.Fprintln(w, "Database saved successfully")
		return false
	}

	res, err := s.eng.Execute(line)
	if err != nil {
		s.writeError(w, line, err)
		return false
	}
	executor.Format(w, res)
	return false
}

func (s *Session) writeError(w io.Writer, line string, err error) {
	s.logger.Debug("command failed",
		slog.String("command", line),
		slog.String("code", errors.Code(err)),
		slog.Any("error", err),
	)
	// One line per error, whatever the cause
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	fmt.Fprintf(w, "Error: %s\n", msg)
}
