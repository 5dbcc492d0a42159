package service

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"classcoins/internal/events"
	"classcoins/internal/models"
)

// SyncService is the reconciliation loop between the local cache and
// the remote system of record. Two cadences run as background tasks: a
// fast cycle that pulls remote state and recomputes balances, and a
// slower review cycle that pushes unsynced local transactions and
// records daily rank snapshots. A cycle that is still running when its
// next tick fires wins; the tick is skipped, never queued.
type SyncService struct {
	students StudentStore
	txns     TransactionStore
	rewards  *RewardService
	ranking  *RankingService
	remote   RemoteLedger
	bus      *events.Bus
	clock    Clock

	fastInterval   time.Duration
	reviewInterval time.Duration

	fastInFlight   atomic.Bool
	reviewInFlight atomic.Bool
}

// NewSyncService creates a reconciliation service.
func NewSyncService(students StudentStore, txns TransactionStore, rewards *RewardService, ranking *RankingService, remote RemoteLedger, bus *events.Bus, clock Clock, fastInterval, reviewInterval time.Duration) *SyncService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SyncService{
		students:       students,
		txns:           txns,
		rewards:        rewards,
		ranking:        ranking,
		remote:         remote,
		bus:            bus,
		clock:          clock,
		fastInterval:   fastInterval,
		reviewInterval: reviewInterval,
	}
}

// Run starts both polling loops and blocks until ctx is cancelled.
// Reconciliation errors are logged, never returned: the loop has no
// caller to report to, and a stale cache self-heals on the next
// successful cycle.
func (s *SyncService) Run(ctx context.Context) {
	log.Printf("Reconciliation loop started: fast=%s review=%s", s.fastInterval, s.reviewInterval)

	fastTicker := time.NewTicker(s.fastInterval)
	defer fastTicker.Stop()
	reviewTicker := time.NewTicker(s.reviewInterval)
	defer reviewTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reconciliation loop stopped")
			return
		case <-fastTicker.C:
			if !s.fastInFlight.CompareAndSwap(false, true) {
				continue
			}
			if err := s.RunCycle(ctx); err != nil {
				log.Printf("Reconciliation cycle failed: %v", err)
			}
			s.fastInFlight.Store(false)
		case <-reviewTicker.C:
			if !s.reviewInFlight.CompareAndSwap(false, true) {
				continue
			}
			if err := s.RunReviewCycle(ctx); err != nil {
				log.Printf("Review cycle failed: %v", err)
			}
			s.reviewInFlight.Store(false)
		}
	}
}

// RunCycle performs one full reconciliation pass: fetch remote state,
// recompute every balance from the merged log, stage any new remote
// reward, replace the local student cache, publish a change event. Any
// fetch failure aborts the cycle before the first local mutation so the
// cache stays consistent, if stale.
func (s *SyncService) RunCycle(ctx context.Context) error {
	remoteStudents, err := s.remote.FetchStudents(ctx)
	if err != nil {
		return fmt.Errorf("fetch students: %w", err)
	}
	remoteLog, err := s.remote.FetchTransactionLog(ctx)
	if err != nil {
		return fmt.Errorf("fetch transaction log: %w", err)
	}

	// Mirror the remote log into the local store. Local unsynced
	// entries are untouched, so the recomputed balance sees the union
	// of both sides.
	for i := range remoteLog {
		if err := s.txns.Upsert(&remoteLog[i]); err != nil {
			return fmt.Errorf("mirror transaction %s: %w", remoteLog[i].ID, err)
		}
	}

	fullLog, err := s.txns.List()
	if err != nil {
		return fmt.Errorf("load merged log: %w", err)
	}
	balances := models.BalancesFromLog(fullLog)

	for i := range remoteStudents {
		rs := &remoteStudents[i]

		local, err := s.students.GetByID(rs.ID)
		if err != nil {
			return fmt.Errorf("load student %s: %w", rs.ID, err)
		}

		// Remote non-coin fields win on conflict; coins is always the
		// locally recomputed value, clamped for the cache. Remote may
		// itself be stale between the two fetches above.
		merged := rs.Student
		merged.Coins = models.ClampBalance(balances[rs.ID])
		if local != nil {
			merged.CreatedAt = local.CreatedAt
		}
		if err := s.students.Upsert(&merged); err != nil {
			return fmt.Errorf("upsert student %s: %w", rs.ID, err)
		}

		s.mergeRemoteReward(ctx, rs, local)
	}

	// Students the remote does not know yet still get their cached
	// balance refreshed; the leaderboard reads that field.
	seen := make(map[string]bool, len(remoteStudents))
	for i := range remoteStudents {
		seen[remoteStudents[i].ID] = true
	}
	locals, err := s.students.List()
	if err != nil {
		return fmt.Errorf("load local students: %w", err)
	}
	for i := range locals {
		if seen[locals[i].ID] {
			continue
		}
		if err := s.students.SetCoins(locals[i].ID, models.ClampBalance(balances[locals[i].ID])); err != nil {
			return fmt.Errorf("refresh coins for %s: %w", locals[i].ID, err)
		}
	}

	s.bus.Publish(events.ChangeEvent{Kind: events.KindStudents, At: s.clock.Now().UTC()})
	return nil
}

// mergeRemoteReward stages a remote reward descriptor the local queue
// has not mirrored yet, then asks the remote to clear its copy. The
// clear is fire and forget: if it fails, the descriptor survives on the
// remote and the next cycle re-attempts, while the recorded reward ID
// keeps the local queue from staging it twice.
func (s *SyncService) mergeRemoteReward(ctx context.Context, rs *models.RemoteStudent, local *models.Student) {
	if rs.Reward == nil {
		return
	}
	lastSeen := ""
	if local != nil {
		lastSeen = local.LastRewardID
	}
	if rs.Reward.ID == lastSeen {
		return
	}

	if err := s.rewards.StageRemote(rs.ID, rs.Reward.Amount, rs.Reward.Reasons); err != nil {
		log.Printf("Failed to stage remote reward %s for %s: %v", rs.Reward.ID, rs.ID, err)
		return
	}
	if err := s.students.SetLastRewardID(rs.ID, rs.Reward.ID); err != nil {
		log.Printf("Failed to record reward id %s for %s: %v", rs.Reward.ID, rs.ID, err)
		return
	}
	if err := s.remote.ClearReward(ctx, rs.ID, rs.Reward.ID); err != nil {
		log.Printf("Failed to clear remote reward %s for %s: %v", rs.Reward.ID, rs.ID, err)
	}
}

// RunReviewCycle pushes local transactions the remote has not seen and
// records today's rank snapshots. Transaction pushes must succeed
// eventually; an entry that fails to push stays unsynced and is retried
// on every following cycle.
func (s *SyncService) RunReviewCycle(ctx context.Context) error {
	unsynced, err := s.txns.ListUnsynced()
	if err != nil {
		return fmt.Errorf("load unsynced transactions: %w", err)
	}

	for i := range unsynced {
		txn := unsynced[i]
		if txn.Status == models.StatusSubmitted {
			continue
		}
		if err := s.remote.AppendTransaction(ctx, txn); err != nil {
			log.Printf("Failed to push transaction %s: %v", txn.ID, err)
			continue
		}
		if err := s.txns.MarkSynced(txn.ID); err != nil {
			return fmt.Errorf("mark transaction %s synced: %w", txn.ID, err)
		}
	}

	if err := s.ranking.SnapshotRanks(); err != nil {
		return fmt.Errorf("snapshot ranks: %w", err)
	}
	return nil
}
