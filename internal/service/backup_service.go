package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"classcoins/internal/database"
)

// BackupData is the on-disk shape of a full export of the local store.
type BackupData struct {
	Version       int                 `json:"version"`
	ExportedAt    time.Time           `json:"exported_at"`
	Students      []StudentBackup     `json:"students"`
	Groups        []GroupBackup       `json:"groups"`
	Transactions  []TransactionBackup `json:"transactions"`
	Quotas        []QuotaBackup       `json:"quotas"`
	Rewards       []RewardBackup      `json:"rewards"`
	RankSnapshots []RankBackup        `json:"rank_snapshots"`
}

type StudentBackup struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GroupID      string `json:"group_id"`
	Role         string `json:"role"`
	Coins        int    `json:"coins"`
	TotalScore   int    `json:"total_score"`
	LastRewardID string `json:"last_reward_id"`
	Deleted      bool   `json:"deleted"`
}

type GroupBackup struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
}

type TransactionBackup struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	SourceKind   string    `json:"source_kind"`
	Amount       int       `json:"amount"`
	Status       string    `json:"status"`
	Score        int       `json:"score"`
	Note         string    `json:"note"`
	RewardStaged bool      `json:"reward_staged"`
	Notified     bool      `json:"notified"`
	Synced       bool      `json:"synced"`
	CreatedAt    time.Time `json:"created_at"`
}

type QuotaBackup struct {
	StudentID string `json:"student_id"`
	Feature   string `json:"feature"`
	Date      string `json:"date"`
	Plays     int    `json:"plays"`
}

type RewardBackup struct {
	StudentID string `json:"student_id"`
	Amount    int    `json:"amount"`
	Reasons   string `json:"reasons"`
}

type RankBackup struct {
	StudentID  string `json:"student_id"`
	Date       string `json:"date"`
	Rank       int    `json:"rank"`
	Coins      int    `json:"coins"`
	TotalScore int    `json:"total_score"`
}

// BackupService exports and imports the full local store as JSON.
// Accounts are deliberately excluded: password hashes do not belong in
// plain backup files.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a full backup to outputPath.
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Backup exported to %s", outputPath)
	return nil
}

// ExportToWriter writes a full backup as indented JSON.
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:    1,
		ExportedAt: time.Now().UTC(),
	}

	if err := s.exportStudents(backup); err != nil {
		return err
	}
	if err := s.exportGroups(backup); err != nil {
		return err
	}
	if err := s.exportTransactions(backup); err != nil {
		return err
	}
	if err := s.exportQuotas(backup); err != nil {
		return err
	}
	if err := s.exportRewards(backup); err != nil {
		return err
	}
	if err := s.exportRankSnapshots(backup); err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Import reads a backup file and writes its contents into the store.
// Existing rows with the same keys are overwritten.
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	if err := s.ImportFromReader(file); err != nil {
		return err
	}

	log.Printf("Backup imported from %s", inputPath)
	return nil
}

// ImportFromReader decodes a backup and writes it into the store.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	if err := s.importGroups(backup.Groups); err != nil {
		return err
	}
	if err := s.importStudents(backup.Students); err != nil {
		return err
	}
	if err := s.importTransactions(backup.Transactions); err != nil {
		return err
	}
	if err := s.importQuotas(backup.Quotas); err != nil {
		return err
	}
	if err := s.importRewards(backup.Rewards); err != nil {
		return err
	}
	if err := s.importRankSnapshots(backup.RankSnapshots); err != nil {
		return err
	}

	log.Printf("Imported %d students, %d groups, %d transactions",
		len(backup.Students), len(backup.Groups), len(backup.Transactions))
	return nil
}

func (s *BackupService) exportStudents(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, name, group_id, role, coins, total_score, last_reward_id, deleted FROM cc_students`)
	if err != nil {
		return fmt.Errorf("failed to export students: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st StudentBackup
		if err := rows.Scan(&st.ID, &st.Name, &st.GroupID, &st.Role, &st.Coins, &st.TotalScore, &st.LastRewardID, &st.Deleted); err != nil {
			return fmt.Errorf("failed to scan student: %w", err)
		}
		backup.Students = append(backup.Students, st)
	}
	return rows.Err()
}

func (s *BackupService) exportGroups(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, name, schedule FROM cc_groups`)
	if err != nil {
		return fmt.Errorf("failed to export groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g GroupBackup
		if err := rows.Scan(&g.ID, &g.Name, &g.Schedule); err != nil {
			return fmt.Errorf("failed to scan group: %w", err)
		}
		backup.Groups = append(backup.Groups, g)
	}
	return rows.Err()
}

func (s *BackupService) exportTransactions(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, student_id, source_kind, amount, status, score, note, reward_staged, notified, synced, created_at FROM cc_transactions`)
	if err != nil {
		return fmt.Errorf("failed to export transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t TransactionBackup
		if err := rows.Scan(&t.ID, &t.StudentID, &t.SourceKind, &t.Amount, &t.Status, &t.Score, &t.Note, &t.RewardStaged, &t.Notified, &t.Synced, &t.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		backup.Transactions = append(backup.Transactions, t)
	}
	return rows.Err()
}

func (s *BackupService) exportQuotas(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT student_id, feature, date, plays FROM cc_quota_records`)
	if err != nil {
		return fmt.Errorf("failed to export quotas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q QuotaBackup
		if err := rows.Scan(&q.StudentID, &q.Feature, &q.Date, &q.Plays); err != nil {
			return fmt.Errorf("failed to scan quota: %w", err)
		}
		backup.Quotas = append(backup.Quotas, q)
	}
	return rows.Err()
}

func (s *BackupService) exportRewards(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT student_id, amount, reasons FROM cc_pending_rewards`)
	if err != nil {
		return fmt.Errorf("failed to export rewards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r RewardBackup
		if err := rows.Scan(&r.StudentID, &r.Amount, &r.Reasons); err != nil {
			return fmt.Errorf("failed to scan reward: %w", err)
		}
		backup.Rewards = append(backup.Rewards, r)
	}
	return rows.Err()
}

func (s *BackupService) exportRankSnapshots(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT student_id, date, standing, coins, total_score FROM cc_rank_snapshots`)
	if err != nil {
		return fmt.Errorf("failed to export rank snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r RankBackup
		if err := rows.Scan(&r.StudentID, &r.Date, &r.Rank, &r.Coins, &r.TotalScore); err != nil {
			return fmt.Errorf("failed to scan rank snapshot: %w", err)
		}
		backup.RankSnapshots = append(backup.RankSnapshots, r)
	}
	return rows.Err()
}

func (s *BackupService) importStudents(students []StudentBackup) error {
	for _, st := range students {
		_, err := s.db.Exec(`DELETE FROM cc_students WHERE id = ?`, st.ID)
		if err != nil {
			return fmt.Errorf("failed to clear student %s: %w", st.ID, err)
		}
		_, err = s.db.Exec(
			`INSERT INTO cc_students (id, name, group_id, role, coins, total_score, last_reward_id, deleted) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.Name, st.GroupID, st.Role, st.Coins, st.TotalScore, st.LastRewardID, st.Deleted,
		)
		if err != nil {
			return fmt.Errorf("failed to import student %s: %w", st.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importGroups(groups []GroupBackup) error {
	for _, g := range groups {
		_, err := s.db.Exec(`DELETE FROM cc_groups WHERE id = ?`, g.ID)
		if err != nil {
			return fmt.Errorf("failed to clear group %s: %w", g.ID, err)
		}
		_, err = s.db.Exec(
			`INSERT INTO cc_groups (id, name, schedule) VALUES (?, ?, ?)`,
			g.ID, g.Name, g.Schedule,
		)
		if err != nil {
			return fmt.Errorf("failed to import group %s: %w", g.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importTransactions(transactions []TransactionBackup) error {
	for _, t := range transactions {
		_, err := s.db.Exec(`DELETE FROM cc_transactions WHERE id = ?`, t.ID)
		if err != nil {
			return fmt.Errorf("failed to clear transaction %s: %w", t.ID, err)
		}
		_, err = s.db.Exec(
			`INSERT INTO cc_transactions (id, student_id, source_kind, amount, status, score, note, reward_staged, notified, synced, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.StudentID, t.SourceKind, t.Amount, t.Status, t.Score, t.Note, t.RewardStaged, t.Notified, t.Synced, t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importQuotas(quotas []QuotaBackup) error {
	for _, q := range quotas {
		_, err := s.db.Exec(`DELETE FROM cc_quota_records WHERE student_id = ? AND feature = ?`, q.StudentID, q.Feature)
		if err != nil {
			return fmt.Errorf("failed to clear quota for %s: %w", q.StudentID, err)
		}
		_, err = s.db.Exec(
			`INSERT INTO cc_quota_records (student_id, feature, date, plays) VALUES (?, ?, ?, ?)`,
			q.StudentID, q.Feature, q.Date, q.Plays,
		)
		if err != nil {
			return fmt.Errorf("failed to import quota for %s: %w", q.StudentID, err)
		}
	}
	return nil
}

func (s *BackupService) importRewards(rewards []RewardBackup) error {
	for _, r := range rewards {
		_, err := s.db.Exec(`DELETE FROM cc_pending_rewards WHERE student_id = ?`, r.StudentID)
		if err != nil {
			return fmt.Errorf("failed to clear reward for %s: %w", r.StudentID, err)
		}
		_, err = s.db.Exec(
			`INSERT INTO cc_pending_rewards (student_id, amount, reasons) VALUES (?, ?, ?)`,
			r.StudentID, r.Amount, r.Reasons,
		)
		if err != nil {
			return fmt.Errorf("failed to import reward for %s: %w", r.StudentID, err)
		}
	}
	return nil
}

func (s *BackupService) importRankSnapshots(snaps []RankBackup) error {
	for _, r := range snaps {
		_, err := s.db.Exec(`DELETE FROM cc_rank_snapshots WHERE student_id = ? AND date = ?`, r.StudentID, r.Date)
		if err != nil {
			return fmt.Errorf("failed to clear rank snapshot for %s: %w", r.StudentID, err)
		}
		_, err = s.db.Exec(
			`INSERT INTO cc_rank_snapshots (student_id, date, standing, coins, total_score) VALUES (?, ?, ?, ?, ?)`,
			r.StudentID, r.Date, r.Rank, r.Coins, r.TotalScore,
		)
		if err != nil {
			return fmt.Errorf("failed to import rank snapshot for %s: %w", r.StudentID, err)
		}
	}
	return nil
}
