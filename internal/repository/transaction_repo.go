package repository

import (
	"database/sql"
	"fmt"
	"time"

	"classcoins/internal/database"
	"classcoins/internal/models"
)

// TransactionRepository handles database operations for the append-only
// transaction log.
type TransactionRepository struct {
	db *database.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = "id, student_id, source_kind, amount, status, score, note, reward_staged, notified, synced, created_at"

func scanTransaction(scan func(dest ...interface{}) error) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var kind, status string
	err := scan(
		&tx.ID,
		&tx.StudentID,
		&kind,
		&tx.Amount,
		&status,
		&tx.Score,
		&tx.Note,
		&tx.RewardStaged,
		&tx.Notified,
		&tx.Synced,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.SourceKind = models.SourceKind(kind)
	tx.Status = models.Status(status)
	return tx, nil
}

// Append inserts a new log entry. Entries are never deleted.
func (r *TransactionRepository) Append(tx *models.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO cc_transactions (id, student_id, source_kind, amount, status, score, note, reward_staged, notified, synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		tx.ID, tx.StudentID, string(tx.SourceKind), tx.Amount, string(tx.Status),
		tx.Score, tx.Note, tx.RewardStaged, tx.Notified, tx.Synced, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a single log entry
func (r *TransactionRepository) GetByID(id string) (*models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM cc_transactions WHERE id = ?"
	tx, err := scanTransaction(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// List retrieves the full log in creation order
func (r *TransactionRepository) List() ([]models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM cc_transactions ORDER BY created_at ASC, id ASC"
	return r.queryTransactions(query)
}

// ListByStudent retrieves a student's log entries in creation order
func (r *TransactionRepository) ListByStudent(studentID string) ([]models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM cc_transactions WHERE student_id = ? ORDER BY created_at ASC, id ASC"
	return r.queryTransactions(query, studentID)
}

// ListUnsynced retrieves locally created entries not yet pushed to the
// system of record.
func (r *TransactionRepository) ListUnsynced() ([]models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM cc_transactions WHERE synced = ? ORDER BY created_at ASC, id ASC"
	return r.queryTransactions(query, false)
}

func (r *TransactionRepository) queryTransactions(query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// Update rewrites an entry's mutable columns: the one-shot grading
// transition (status, amount, score) and the side-effect/sync flags.
func (r *TransactionRepository) Update(tx *models.Transaction) error {
	query := `
		UPDATE cc_transactions
		SET status = ?, amount = ?, score = ?, note = ?, reward_staged = ?, notified = ?, synced = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		string(tx.Status), tx.Amount, tx.Score, tx.Note, tx.RewardStaged, tx.Notified, tx.Synced, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// MarkSynced flags an entry as pushed to the system of record
func (r *TransactionRepository) MarkSynced(id string) error {
	query := "UPDATE cc_transactions SET synced = ? WHERE id = ?"
	_, err := r.db.Exec(query, true, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction synced: %w", err)
	}
	return nil
}

// Upsert mirrors a remote log entry into the local cache. Remote entries
// are authoritative, so an existing row with the same id is overwritten,
// but the local side-effect flags survive the refresh.
func (r *TransactionRepository) Upsert(tx *models.Transaction) error {
	existing, err := r.GetByID(tx.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		mirrored := *tx
		mirrored.Synced = true
		return r.Append(&mirrored)
	}

	query := `
		UPDATE cc_transactions
		SET student_id = ?, source_kind = ?, amount = ?, status = ?, score = ?, note = ?, synced = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query,
		tx.StudentID, string(tx.SourceKind), tx.Amount, string(tx.Status), tx.Score, tx.Note, true, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}
