package transaction

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// txIDCounter is an atomic counter giving every command a monotonically
// increasing sequence number
var txIDCounter uint64

// Transaction is the tracing context of one command executed under the
// engine guard. It carries no undo information: every command is applied
// in full or not at all.
type Transaction struct {
	ID        string    // Unique identifier (UUID) used in logs and events
	Seq       uint64    // Process-wide sequence number
	Command   string    // Raw command text
	Active    bool      // Whether the command is still running
	StartTime time.Time // When the command was received
}

// NewTransaction creates a new transaction with a unique ID
func NewTransaction(command string) *Transaction {
	return &Transaction{
		ID:        uuid.New().String(),
		Seq:       atomic.AddUint64(&txIDCounter, 1),
		Command:   command,
		Active:    true,
		StartTime: time.Now(),
	}
}

// Elapsed returns the time since the transaction started
func (tx *Transaction) Elapsed() time.Duration {
	return time.Since(tx.StartTime)
}

// Close marks the transaction as inactive
func (tx *Transaction) Close() {
	tx.Active = false
}
