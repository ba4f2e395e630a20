package repl

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/leengari/atomdb/internal/session"
	"golang.org/x/term"
)

const (
	prompt  = "atomdb> "
	welcome = "Welcome to AtomDB\nType 'help' for commands, 'exit' or 'quit' to leave."
)

// completions are offered on TAB in interactive mode
var completions = []string{
	"CREATE TABLE", "INSERT INTO", "SELECT * FROM", "DESCRIBE",
	"SHOW TABLES", "DROP TABLE", "WHERE",
	"help", "load", "save", "quit", "exit",
}

// Options configures the interactive shell
type Options struct {
	HistoryFile string // empty disables history
}

// Start runs the shell on the process terminal. It uses line editing when
// stdin is a terminal and falls back to plain line reading otherwise.
// It returns when the user quits or input ends.
func Start(sess *session.Session, opts Options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return Run(os.Stdin, os.Stdout, sess)
	}
	return runInteractive(sess, opts)
}

// Run reads commands line by line from in and writes responses to out
func Run(in io.Reader, out io.Writer, sess *session.Session) error {
	scanner := session.NewScanner(in)
	fmt.Fprintln(out, welcome)

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			err := scanner.Err()
			session.WriteScanError(out, err)
			return err
		}
		if sess.Handle(out, scanner.Text()) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
	}
}

func runInteractive(sess *session.Session, opts Options) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     opts.HistoryFile,
		AutoComplete:    createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize line editor: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	fmt.Fprintln(out, welcome)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				// Ctrl+C clears the line; an empty line hints how to leave
				if len(line) == 0 {
					fmt.Fprintln(out, "(Use 'exit' to quit or Ctrl+D)")
				}
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			return err
		}

		if sess.Handle(out, line) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
	}
}

// createCompleter creates a readline completer for tab completion
func createCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(completions))
	for _, c := range completions {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

// filterInput filters input runes for readline
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false // Disable Ctrl+Z
	}
	return r, true
}
