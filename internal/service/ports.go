package service

import (
	"context"
	"time"

	"classcoins/internal/models"
)

// StudentStore is the persistence surface the services need for students.
// *repository.StudentRepository satisfies it; tests use in-memory fakes.
type StudentStore interface {
	GetByID(id string) (*models.Student, error)
	List() ([]models.Student, error)
	ListByGroup(groupID string) ([]models.Student, error)
	Upsert(s *models.Student) error
	SetCoins(id string, coins int) error
	SetLastRewardID(id, rewardID string) error
	SoftDelete(id string) error
	CountByGroup(groupID string) (int, error)
}

// TransactionStore is the persistence surface for the transaction log.
type TransactionStore interface {
	Append(tx *models.Transaction) error
	GetByID(id string) (*models.Transaction, error)
	List() ([]models.Transaction, error)
	ListByStudent(studentID string) ([]models.Transaction, error)
	ListUnsynced() ([]models.Transaction, error)
	Update(tx *models.Transaction) error
	MarkSynced(id string) error
	Upsert(tx *models.Transaction) error
}

// QuotaStore is the persistence surface for daily play quotas.
type QuotaStore interface {
	Get(studentID string, feature models.Feature) (*models.QuotaRecord, error)
	Upsert(q *models.QuotaRecord) error
	ListByStudent(studentID string) ([]models.QuotaRecord, error)
}

// RewardStore is the persistence surface for pending rewards.
type RewardStore interface {
	Get(studentID string) (*models.PendingReward, error)
	Upsert(p *models.PendingReward) error
	Delete(studentID string) error
}

// RankHistoryStore is the persistence surface for daily rank snapshots.
type RankHistoryStore interface {
	ListByStudent(studentID string) ([]models.RankSnapshot, error)
	Record(snap models.RankSnapshot) error
}

// GroupStore is the persistence surface for groups.
type GroupStore interface {
	GetByID(id string) (*models.Group, error)
	List() ([]models.Group, error)
	Create(g *models.Group) error
	Update(g *models.Group) error
	Delete(id string) error
}

// AccountStore is the persistence surface for login accounts.
type AccountStore interface {
	GetByUsername(username string) (*models.Account, error)
	GetByStudentID(studentID string) (*models.Account, error)
	Create(a *models.Account) error
}

// RemoteLedger is the remote system of record the reconciliation loop
// talks to. *remote.Client satisfies it.
type RemoteLedger interface {
	FetchStudents(ctx context.Context) ([]models.RemoteStudent, error)
	FetchTransactionLog(ctx context.Context) ([]models.Transaction, error)
	WriteStudent(ctx context.Context, student models.Student) error
	AppendTransaction(ctx context.Context, txn models.Transaction) error
	ClearReward(ctx context.Context, studentID, rewardID string) error
}

// Notifier sends guardian notifications. *EmailService satisfies it.
type Notifier interface {
	SendLowScoreEmail(ctx context.Context, toEmail, studentName string, score int) error
}

// Clock abstracts wall-clock time so quota and ranking behavior around
// day boundaries is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
