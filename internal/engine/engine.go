package engine

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
	"github.com/leengari/atomdb/internal/domain/transaction"
	"github.com/leengari/atomdb/internal/executor"
	"github.com/leengari/atomdb/internal/parser"
	"github.com/leengari/atomdb/internal/parser/ast"
	"github.com/leengari/atomdb/internal/parser/lexer"
)

// Store persists and restores whole-database snapshots
type Store interface {
	Save(db *schema.Database) error
	Load() (*schema.Database, error)
}

// Engine is the owning handle of one database. A single mutex guards all
// state; every exported method runs entirely under it.
type Engine struct {
	mu        sync.Mutex
	db        *schema.Database
	store     Store      // nil disables persistence
	observers []Observer // Observers for lifecycle events
	logger    *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for autosave failures and reloads
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObservers registers observers at construction time
func WithObservers(observers ...Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, observers...) }
}

// New creates a new Engine instance. A nil db starts empty.
func New(db *schema.Database, store Store, opts ...Option) *Engine {
	if db == nil {
		db = schema.NewDatabase()
	}
	e := &Engine{
		db:        db,
		store:     store,
		observers: make([]Observer, 0),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute processes one command and returns the result. Tokenizing,
// parsing, execution and the autosave that follows a successful mutation
// all happen within one lock acquisition.
//
// A failed autosave is logged and reported to observers only; the
// mutation stays applied in memory and the command still succeeds.
func (e *Engine) Execute(command string) (*executor.Result, error) {
	tx := transaction.NewTransaction(command)
	defer tx.Close()

	label := commandLabel(command)

	e.lock(tx, label)
	defer e.mu.Unlock()

	res, err := e.execute(tx, label)
	e.notify(Event{Type: EventCommandEnd, TxID: tx.ID, Command: label, Duration: tx.Elapsed(), Err: err})
	return res, err
}

func (e *Engine) execute(tx *transaction.Transaction, label string) (*executor.Result, error) {
	// 1. Tokenize
	e.notify(Event{Type: EventLexStart, TxID: tx.ID, Command: label, Data: tx.Command})
	tokens, err := lexer.Tokenize(tx.Command)
	if err != nil {
		return nil, err
	}
	e.notify(Event{Type: EventLexEnd, TxID: tx.ID, Command: label, Data: len(tokens)})

	// 2. Parse
	e.notify(Event{Type: EventParseStart, TxID: tx.ID, Command: label})
	stmt, err := parser.New(tokens).Parse()
	if err != nil {
		return nil, err
	}
	e.notify(Event{Type: EventParseEnd, TxID: tx.ID, Command: label, Data: fmt.Sprintf("%T", stmt)})

	// 3. Execute
	e.notify(Event{Type: EventExecStart, TxID: tx.ID, Command: label})
	result, err := executor.Execute(stmt, e.db)
	if err != nil {
		return nil, err
	}
	e.notify(Event{Type: EventExecEnd, TxID: tx.ID, Command: label, Data: map[string]interface{}{
		"table":         result.Table,
		"rows_returned": len(result.Records),
	}})

	// 4. Autosave
	if ast.Mutates(stmt) {
		e.autosave(tx, label)
	}
	return result, nil
}

// Reload replaces the whole in-memory database with the stored snapshot.
// On failure the current state is kept.
func (e *Engine) Reload() error {
	tx := transaction.NewTransaction("load")
	defer tx.Close()

	e.lock(tx, "load")
	defer e.mu.Unlock()

	if e.store == nil {
		return fmt.Errorf("persistence is disabled")
	}

	db, err := e.store.Load()
	e.notify(Event{Type: EventReload, TxID: tx.ID, Command: "load", Duration: tx.Elapsed(), Err: err})
	if err != nil {
		e.logger.Warn("reload failed, keeping current state",
			slog.String("tx_id", tx.ID),
			slog.Any("error", err),
		)
		return err
	}

	e.db = db
	e.logger.Info("database reloaded", slog.String("tx_id", tx.ID), slog.Int("table_count", len(db.Tables)))
	return nil
}

// Save writes a full snapshot and returns any failure
func (e *Engine) Save() error {
	tx := transaction.NewTransaction("save")
	defer tx.Close()

	e.lock(tx, "save")
	defer e.mu.Unlock()

	return e.save(tx, "save")
}

// View runs fn with exclusive read access to the database.
// fn must not retain the database after returning.
func (e *Engine) View(fn func(db *schema.Database) error) error {
	tx := transaction.NewTransaction("view")
	defer tx.Close()

	e.lock(tx, "view")
	defer e.mu.Unlock()

	return fn(e.db)
}

// Update runs fn with exclusive access and applies the autosave policy
// when fn succeeds
func (e *Engine) Update(fn func(db *schema.Database) error) error {
	tx := transaction.NewTransaction("update")
	defer tx.Close()

	e.lock(tx, "update")
	defer e.mu.Unlock()

	if err := fn(e.db); err != nil {
		return err
	}
	e.autosave(tx, "update")
	return nil
}

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(observer Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, observer)
}

// RemoveObserver unregisters an observer. Observers are matched by ==,
// so register pointers; a value of a non-comparable type is never found.
func (e *Engine) RemoveObserver(observer Observer) {
	if observer == nil || !reflect.TypeOf(observer).Comparable() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// lock acquires the guard and reports how long the caller waited
func (e *Engine) lock(tx *transaction.Transaction, label string) {
	start := time.Now()
	e.mu.Lock()
	e.notify(Event{Type: EventLockAcquired, TxID: tx.ID, Command: label, Duration: time.Since(start)})
}

// autosave persists after a mutation. Must be called with mutex held.
func (e *Engine) autosave(tx *transaction.Transaction, label string) {
	if err := e.save(tx, label); err != nil {
		e.logger.Error("autosave failed, mutation kept in memory",
			slog.String("tx_id", tx.ID),
			slog.String("command", label),
			slog.String("code", errors.Code(err)),
			slog.Any("error", err),
		)
	}
}

// save writes a snapshot. Must be called with mutex held.
func (e *Engine) save(tx *transaction.Transaction, label string) error {
	if e.store == nil {
		return nil
	}

	e.notify(Event{Type: EventSaveStart, TxID: tx.ID, Command: label})
	start := time.Now()
	err := e.store.Save(e.db)
	e.notify(Event{Type: EventSaveEnd, TxID: tx.ID, Command: label, Duration: time.Since(start), Err: err})
	return err
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	event.Timestamp = time.Now()
	for _, observer := range e.observers {
		observer.OnEvent(event)
	}
}

// commandLabel maps command text to a bounded label for events and metrics
func commandLabel(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "empty"
	}
	switch kw := strings.ToLower(fields[0]); kw {
	case "create", "insert", "select", "describe", "show", "drop":
		return kw
	}
	return "unknown"
}
