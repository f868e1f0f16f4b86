// Package testutil provides in-memory collaborators for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintStore is an in-memory repository.ComplaintRepository.
type ComplaintStore struct {
	mu         sync.Mutex
	complaints map[int64]domain.Complaint
	nextID     int64

	UpdateErr error
}

func NewComplaintStore() *ComplaintStore {
	return &ComplaintStore{complaints: map[int64]domain.Complaint{}}
}

func (s *ComplaintStore) Create(_ context.Context, c *domain.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.complaints[c.ID] = cloneComplaint(*c)
	return nil
}

func (s *ComplaintStore) UpdateStatus(_ context.Context, c *domain.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	stored, ok := s.complaints[c.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = c.Status
	stored.UpdatedAt = c.UpdatedAt
	stored.ResolvedAt = c.ResolvedAt
	s.complaints[c.ID] = cloneComplaint(stored)
	return nil
}

func (s *ComplaintStore) GetByID(_ context.Context, id int64) (*domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := cloneComplaint(c)
	return &clone, nil
}

func (s *ComplaintStore) ListByOwner(_ context.Context, ownerID int64) ([]domain.Complaint, error) {
	return s.filter(func(c domain.Complaint) bool { return c.OwnerID == ownerID }), nil
}

func (s *ComplaintStore) ListByDepartment(_ context.Context, departmentKey string) ([]domain.Complaint, error) {
	return s.filter(func(c domain.Complaint) bool {
		return domain.NormalizeDepartmentKey(c.Category) == departmentKey
	}), nil
}

func (s *ComplaintStore) ListAll(context.Context) ([]domain.Complaint, error) {
	return s.filter(func(domain.Complaint) bool { return true }), nil
}

func (s *ComplaintStore) filter(keep func(domain.Complaint) bool) []domain.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Complaint
	for _, c := range s.complaints {
		if keep(c) {
			out = append(out, cloneComplaint(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func cloneComplaint(c domain.Complaint) domain.Complaint {
	if c.ResolvedAt != nil {
		resolvedAt := *c.ResolvedAt
		c.ResolvedAt = &resolvedAt
	}
	return c
}

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu     sync.Mutex
	users  map[int64]domain.User
	nextID int64
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[int64]domain.User{}}
}

func (s *UserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *UserStore) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var fallback *domain.User
	for id := int64(1); id <= s.nextID; id++ {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		if u.Username == identifier || u.Email == identifier {
			return &u, nil
		}
		if fallback == nil && (strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier)) {
			match := u
			fallback = &match
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, pgx.ErrNoRows
}

// Ledger is an in-memory repository.DepartmentLedger keyed by routed table.
type Ledger struct {
	mu      sync.Mutex
	entries map[domain.TableID]map[int64]domain.LedgerEntry

	UpsertErr error
	ReadErr   error
	Upserts   int
}

func NewLedger() *Ledger {
	return &Ledger{entries: map[domain.TableID]map[int64]domain.LedgerEntry{}}
}

func (l *Ledger) Upsert(_ context.Context, complaintID int64, category string, status domain.DepartmentStatus, remarks string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Upserts++
	if l.UpsertErr != nil {
		return l.UpsertErr
	}
	table := domain.TableFor(category)
	if l.entries[table] == nil {
		l.entries[table] = map[int64]domain.LedgerEntry{}
	}
	if strings.TrimSpace(string(status)) == "" {
		status = domain.DeptStatusPending
	}
	l.entries[table][complaintID] = domain.LedgerEntry{ComplaintID: complaintID, Status: status, Remarks: remarks}
	return nil
}

func (l *Ledger) Read(_ context.Context, complaintID int64, category string) (domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ReadErr != nil {
		return domain.DefaultLedgerEntry(complaintID), l.ReadErr
	}
	entry, ok := l.entries[domain.TableFor(category)][complaintID]
	if !ok {
		return domain.DefaultLedgerEntry(complaintID), nil
	}
	return entry, nil
}

// Entry returns the stored row, if any.
func (l *Ledger) Entry(table domain.TableID, complaintID int64) (domain.LedgerEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[table][complaintID]
	return entry, ok
}

// Notification is one message captured by Notifier.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// Notifier records notifications instead of sending them.
type Notifier struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

func (n *Notifier) Notify(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{To: to, Subject: subject, Body: body})
	return n.Err
}
