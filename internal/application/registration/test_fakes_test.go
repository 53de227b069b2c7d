package registration

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/admin-portal/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

type fakeAccounts struct {
	mu sync.Mutex

	byEmail map[string]domain.AccountRecord

	// injected errors (if set, method returns error)
	findErr   error
	insertErr error
	pingErr   error

	inserts int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]domain.AccountRecord{}}
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) ([]domain.AccountRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}
	if rec, ok := f.byEmail[email]; ok {
		return []domain.AccountRecord{rec}, nil
	}
	return nil, nil
}

func (f *fakeAccounts) Insert(ctx context.Context, rec domain.AccountRecord) (domain.AccountRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return domain.AccountRecord{}, f.insertErr
	}
	if _, ok := f.byEmail[rec.Email]; ok {
		return domain.AccountRecord{}, domain.ErrEmailAlreadyExists()
	}
	f.byEmail[rec.Email] = rec
	f.inserts++
	return rec, nil
}

func (f *fakeAccounts) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) last(t *testing.T) Notification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatalf("expected a notification, got none")
	}
	return n.sent[len(n.sent)-1]
}

type fakeWorkflows struct {
	mu    sync.Mutex
	snaps map[string]domain.Snapshot

	saveErr error
	saves   []domain.WorkflowState
}

func newFakeWorkflows() *fakeWorkflows {
	return &fakeWorkflows{snaps: map[string]domain.Snapshot{}}
}

// clone keeps callers from mutating stored snapshots through shared pointers.
func clone(s domain.Snapshot) domain.Snapshot {
	if s.Challenge != nil {
		ch := *s.Challenge
		s.Challenge = &ch
	}
	if s.Account != nil {
		a := *s.Account
		s.Account = &a
	}
	return s
}

func (f *fakeWorkflows) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.snaps[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrRegistrationNotFound()
	}
	return clone(s), nil
}

func (f *fakeWorkflows) Save(ctx context.Context, snap domain.Snapshot, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	f.snaps[snap.ID] = clone(snap)
	f.saves = append(f.saves, snap.State)
	return nil
}

func (f *fakeWorkflows) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, id)
	return nil
}

func (f *fakeWorkflows) get(t *testing.T, id string) domain.Snapshot {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snaps[id]
	if !ok {
		t.Fatalf("expected snapshot %q stored", id)
	}
	return clone(s)
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]bool{}} }

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return nil, domain.ErrTransitionInFlight()
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}

type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]domain.SessionMarker

	createErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]domain.SessionMarker{}}
}

func (s *fakeSessions) Create(ctx context.Context, m domain.SessionMarker, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}
	s.byID[m.ID] = m
	return nil
}

func (s *fakeSessions) Get(ctx context.Context, id string) (domain.SessionMarker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return domain.SessionMarker{}, domain.ErrSessionNotFound()
	}
	return m, nil
}

func (s *fakeSessions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

type fakeHasher struct {
	hashFn func(pw string) (string, error)
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

/*
Service under test
*/

type testEnv struct {
	svc       *Service
	accounts  *fakeAccounts
	notifier  *fakeNotifier
	workflows *fakeWorkflows
	locks     *fakeLocker
	sessions  *fakeSessions
	hasher    *fakeHasher
	clock     *fakeClock
	audits    *[]auditEntry
}

func newSvcForTest(t *testing.T, policy DeliveryPolicy) *testEnv {
	t.Helper()

	env := &testEnv{
		accounts:  newFakeAccounts(),
		notifier:  &fakeNotifier{},
		workflows: newFakeWorkflows(),
		locks:     newFakeLocker(),
		sessions:  newFakeSessions(),
		hasher:    &fakeHasher{},
		clock:     &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		audits:    &[]auditEntry{},
	}

	var seq int
	var seqMu sync.Mutex
	cfg := Config{
		DeliveryPolicy: policy,
		CodeTTL:        10 * time.Minute,
		Now:            env.clock.Now,
		NewID: func() string {
			seqMu.Lock()
			defer seqMu.Unlock()
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}

	env.svc = NewService(env.accounts, env.notifier, env.workflows, env.locks, env.sessions, env.hasher, cfg).
		WithAudit(func(action string, fields map[string]string) {
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			*env.audits = append(*env.audits, auditEntry{action: action, fields: cp})
		})

	if env.svc == nil {
		t.Fatalf("svc is nil")
	}
	return env
}

// fixCodes makes the generator return the given codes in order.
func (e *testEnv) fixCodes(codes ...int) {
	var buf bytes.Buffer
	for _, c := range codes {
		// rand.Int reads two bytes for a 9000-value range; values below it are returned as-is
		v := c - codeMin
		buf.WriteByte(byte(v >> 8))
		buf.WriteByte(byte(v))
	}
	e.svc.codes.rand = &buf
}

func annLee() *domain.RegistrationDraft {
	return &domain.RegistrationDraft{
		FullName:        "Ann Lee",
		Company:         "Acme",
		Email:           "ann@acme.io",
		Password:        "Secret#123",
		ConfirmPassword: "Secret#123",
	}
}

// fieldsOf turns a draft into a full submit body.
func fieldsOf(d *domain.RegistrationDraft) map[string]string {
	out := make(map[string]string, len(domain.DraftFields))
	for _, f := range domain.DraftFields {
		out[f] = d.Get(f)
	}
	return out
}

// submitted runs Start and Submit for the standard draft and returns the registration id.
func (e *testEnv) submitted(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	v, err := e.svc.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.svc.Submit(ctx, v.ID, fieldsOf(annLee())); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return v.ID
}

/*
Small assertions
*/

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}

func requireAudit(t *testing.T, audits *[]auditEntry, wantAction string) auditEntry {
	t.Helper()
	for i := len(*audits) - 1; i >= 0; i-- {
		if (*audits)[i].action == wantAction {
			return (*audits)[i]
		}
	}
	t.Fatalf("expected audit action=%q, got %+v", wantAction, *audits)
	return auditEntry{}
}
