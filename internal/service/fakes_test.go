package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"classcoins/internal/models"
)

// In-memory fakes for the store ports. The SQL repositories are covered
// by the database integration tests; these keep the service tests fast
// and deterministic.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeStudentStore struct {
	students map[string]models.Student
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{students: make(map[string]models.Student)}
}

func (s *fakeStudentStore) GetByID(id string) (*models.Student, error) {
	st, ok := s.students[id]
	if !ok {
		return nil, nil
	}
	copy := st
	return &copy, nil
}

func (s *fakeStudentStore) List() ([]models.Student, error) {
	var out []models.Student
	for _, st := range s.students {
		if !st.Deleted {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStudentStore) ListByGroup(groupID string) ([]models.Student, error) {
	all, _ := s.List()
	var out []models.Student
	for _, st := range all {
		if st.GroupID == groupID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *fakeStudentStore) Upsert(st *models.Student) error {
	s.students[st.ID] = *st
	return nil
}

func (s *fakeStudentStore) SetCoins(id string, coins int) error {
	st, ok := s.students[id]
	if !ok {
		return errors.New("student not found")
	}
	st.Coins = coins
	s.students[id] = st
	return nil
}

func (s *fakeStudentStore) SetLastRewardID(id, rewardID string) error {
	st, ok := s.students[id]
	if !ok {
		return errors.New("student not found")
	}
	st.LastRewardID = rewardID
	s.students[id] = st
	return nil
}

func (s *fakeStudentStore) SoftDelete(id string) error {
	st, ok := s.students[id]
	if !ok {
		return errors.New("student not found")
	}
	st.Deleted = true
	s.students[id] = st
	return nil
}

func (s *fakeStudentStore) CountByGroup(groupID string) (int, error) {
	members, _ := s.ListByGroup(groupID)
	return len(members), nil
}

type fakeTransactionStore struct {
	order []string
	txns  map[string]models.Transaction
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{txns: make(map[string]models.Transaction)}
}

func (s *fakeTransactionStore) Append(tx *models.Transaction) error {
	if _, ok := s.txns[tx.ID]; ok {
		return errors.New("duplicate transaction id")
	}
	s.txns[tx.ID] = *tx
	s.order = append(s.order, tx.ID)
	return nil
}

func (s *fakeTransactionStore) GetByID(id string) (*models.Transaction, error) {
	tx, ok := s.txns[id]
	if !ok {
		return nil, nil
	}
	copy := tx
	return &copy, nil
}

func (s *fakeTransactionStore) List() ([]models.Transaction, error) {
	out := make([]models.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.txns[id])
	}
	return out, nil
}

func (s *fakeTransactionStore) ListByStudent(studentID string) ([]models.Transaction, error) {
	all, _ := s.List()
	var out []models.Transaction
	for _, tx := range all {
		if tx.StudentID == studentID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *fakeTransactionStore) ListUnsynced() ([]models.Transaction, error) {
	all, _ := s.List()
	var out []models.Transaction
	for _, tx := range all {
		if !tx.Synced {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *fakeTransactionStore) Update(tx *models.Transaction) error {
	if _, ok := s.txns[tx.ID]; !ok {
		return errors.New("transaction not found")
	}
	s.txns[tx.ID] = *tx
	return nil
}

func (s *fakeTransactionStore) MarkSynced(id string) error {
	tx, ok := s.txns[id]
	if !ok {
		return errors.New("transaction not found")
	}
	tx.Synced = true
	s.txns[id] = tx
	return nil
}

func (s *fakeTransactionStore) Upsert(tx *models.Transaction) error {
	if existing, ok := s.txns[tx.ID]; ok {
		merged := *tx
		merged.RewardStaged = existing.RewardStaged
		merged.Notified = existing.Notified
		s.txns[tx.ID] = merged
		return nil
	}
	s.txns[tx.ID] = *tx
	s.order = append(s.order, tx.ID)
	return nil
}

type fakeQuotaStore struct {
	records map[string]models.QuotaRecord
}

func newFakeQuotaStore() *fakeQuotaStore {
	return &fakeQuotaStore{records: make(map[string]models.QuotaRecord)}
}

func quotaKey(studentID string, feature models.Feature) string {
	return studentID + "|" + string(feature)
}

func (s *fakeQuotaStore) Get(studentID string, feature models.Feature) (*models.QuotaRecord, error) {
	rec, ok := s.records[quotaKey(studentID, feature)]
	if !ok {
		return nil, nil
	}
	copy := rec
	return &copy, nil
}

func (s *fakeQuotaStore) Upsert(q *models.QuotaRecord) error {
	s.records[quotaKey(q.StudentID, q.Feature)] = *q
	return nil
}

func (s *fakeQuotaStore) ListByStudent(studentID string) ([]models.QuotaRecord, error) {
	var out []models.QuotaRecord
	for _, rec := range s.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeRewardStore struct {
	rewards map[string]models.PendingReward
}

func newFakeRewardStore() *fakeRewardStore {
	return &fakeRewardStore{rewards: make(map[string]models.PendingReward)}
}

func (s *fakeRewardStore) Get(studentID string) (*models.PendingReward, error) {
	r, ok := s.rewards[studentID]
	if !ok {
		return nil, nil
	}
	copy := r
	copy.Reasons = append([]string(nil), r.Reasons...)
	return &copy, nil
}

func (s *fakeRewardStore) Upsert(p *models.PendingReward) error {
	stored := *p
	stored.Reasons = append([]string(nil), p.Reasons...)
	s.rewards[p.StudentID] = stored
	return nil
}

func (s *fakeRewardStore) Delete(studentID string) error {
	delete(s.rewards, studentID)
	return nil
}

type fakeRankStore struct {
	snaps map[string][]models.RankSnapshot
}

func newFakeRankStore() *fakeRankStore {
	return &fakeRankStore{snaps: make(map[string][]models.RankSnapshot)}
}

func (s *fakeRankStore) ListByStudent(studentID string) ([]models.RankSnapshot, error) {
	return append([]models.RankSnapshot(nil), s.snaps[studentID]...), nil
}

func (s *fakeRankStore) Record(snap models.RankSnapshot) error {
	series := s.snaps[snap.StudentID]
	for i := range series {
		if series[i].Date == snap.Date {
			series[i] = snap
			s.snaps[snap.StudentID] = series
			return nil
		}
	}
	series = append(series, snap)
	if len(series) > models.RankHistoryCap {
		series = series[len(series)-models.RankHistoryCap:]
	}
	s.snaps[snap.StudentID] = series
	return nil
}

type fakeGroupStore struct {
	groups map[string]models.Group
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[string]models.Group)}
}

func (s *fakeGroupStore) GetByID(id string) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	copy := g
	return &copy, nil
}

func (s *fakeGroupStore) List() ([]models.Group, error) {
	var out []models.Group
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeGroupStore) Create(g *models.Group) error {
	s.groups[g.ID] = *g
	return nil
}

func (s *fakeGroupStore) Update(g *models.Group) error {
	s.groups[g.ID] = *g
	return nil
}

func (s *fakeGroupStore) Delete(id string) error {
	delete(s.groups, id)
	return nil
}

type fakeAccountStore struct {
	nextID   int64
	accounts map[string]models.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[string]models.Account)}
}

func (s *fakeAccountStore) GetByUsername(username string) (*models.Account, error) {
	a, ok := s.accounts[username]
	if !ok {
		return nil, nil
	}
	copy := a
	return &copy, nil
}

func (s *fakeAccountStore) GetByStudentID(studentID string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.StudentID == studentID && studentID != "" {
			copy := a
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *fakeAccountStore) Create(a *models.Account) error {
	if _, ok := s.accounts[a.Username]; ok {
		return errors.New("username taken")
	}
	s.nextID++
	a.ID = s.nextID
	s.accounts[a.Username] = *a
	return nil
}

type fakeRemote struct {
	students []models.RemoteStudent
	log      []models.Transaction

	fetchStudentsErr error
	fetchLogErr      error
	appendErr        error
	clearErr         error

	appended     []models.Transaction
	cleared      []string
	writtenBack  []models.Student
	writeStuErr  error
	fetchCalls   int
	clearedPairs map[string]string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{clearedPairs: make(map[string]string)}
}

func (r *fakeRemote) FetchStudents(ctx context.Context) ([]models.RemoteStudent, error) {
	r.fetchCalls++
	if r.fetchStudentsErr != nil {
		return nil, r.fetchStudentsErr
	}
	return append([]models.RemoteStudent(nil), r.students...), nil
}

func (r *fakeRemote) FetchTransactionLog(ctx context.Context) ([]models.Transaction, error) {
	if r.fetchLogErr != nil {
		return nil, r.fetchLogErr
	}
	return append([]models.Transaction(nil), r.log...), nil
}

func (r *fakeRemote) WriteStudent(ctx context.Context, student models.Student) error {
	if r.writeStuErr != nil {
		return r.writeStuErr
	}
	r.writtenBack = append(r.writtenBack, student)
	return nil
}

func (r *fakeRemote) AppendTransaction(ctx context.Context, txn models.Transaction) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appended = append(r.appended, txn)
	return nil
}

func (r *fakeRemote) ClearReward(ctx context.Context, studentID, rewardID string) error {
	if r.clearErr != nil {
		return r.clearErr
	}
	r.cleared = append(r.cleared, studentID)
	r.clearedPairs[studentID] = rewardID
	return nil
}

type fakeNotifier struct {
	sendErr error
	sent    []string
}

func (n *fakeNotifier) SendLowScoreEmail(ctx context.Context, toEmail, studentName string, score int) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, toEmail)
	return nil
}
