package testutil

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/hakbangquest/hakbangweb/internal/app/suggestion"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemSuggestions is an in-memory suggestion.DocumentStore. Its clock ticks
// one millisecond per insert so creation times are strictly increasing.
type MemSuggestions struct {
	mu      sync.Mutex
	docs    []models.Suggestion
	clock   time.Time
	inserts int
	queries int

	// InsertErr and QueryErr, when set, are returned by the matching call.
	InsertErr error
	QueryErr  error
}

// NewMemSuggestions returns an empty store.
func NewMemSuggestions() *MemSuggestions {
	return &MemSuggestions{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Insert stores the document and stamps it with the store clock.
func (m *MemSuggestions) Insert(ctx context.Context, d suggestion.NewDocument) (models.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return models.Suggestion{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return models.Suggestion{}, m.InsertErr
	}
	m.inserts++
	m.clock = m.clock.Add(time.Millisecond)
	doc := models.Suggestion{
		ID:        primitive.NewObjectID(),
		Name:      d.Name,
		Text:      d.Text,
		CreatedAt: m.clock,
		Submitter: d.Submitter,
	}
	m.docs = append(m.docs, doc)
	return doc, nil
}

// Query returns up to limit documents strictly after the given position in
// (created_at desc, _id desc) order.
func (m *MemSuggestions) Query(ctx context.Context, after *suggestion.Position, limit int) ([]models.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	all := make([]models.Suggestion, len(m.docs))
	copy(all, m.docs)
	sort.Slice(all, func(i, j int) bool { return newer(all[i], all[j]) })

	out := make([]models.Suggestion, 0, limit)
	for _, d := range all {
		if after != nil && !before(d, after) {
			continue
		}
		out = append(out, d)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Seed adds documents as-is, truncating timestamps to milliseconds the way
// the database stores them.
func (m *MemSuggestions) Seed(docs ...models.Suggestion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		if d.ID.IsZero() {
			d.ID = primitive.NewObjectID()
		}
		d.CreatedAt = d.CreatedAt.UTC().Truncate(time.Millisecond)
		m.docs = append(m.docs, d)
	}
}

// Len returns the number of stored documents.
func (m *MemSuggestions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Inserts returns the number of successful Insert calls.
func (m *MemSuggestions) Inserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts
}

// Queries returns the number of Query calls.
func (m *MemSuggestions) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

func newer(a, b models.Suggestion) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

func before(d models.Suggestion, p *suggestion.Position) bool {
	if d.CreatedAt.Before(p.CreatedAt) {
		return true
	}
	return d.CreatedAt.Equal(p.CreatedAt) && bytes.Compare(d.ID[:], p.ID[:]) < 0
}

// MemAccounts is an in-memory identity.Accounts.
type MemAccounts struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User

	// Err, when set, is returned by every lookup.
	Err error
}

// NewMemAccounts returns a store holding users.
func NewMemAccounts(users ...models.User) *MemAccounts {
	m := &MemAccounts{byID: make(map[primitive.ObjectID]models.User)}
	for _, u := range users {
		m.Put(u)
	}
	return m
}

// Put adds or replaces an account.
func (m *MemAccounts) Put(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.EmailCI == "" {
		u.EmailCI = text.Fold(u.Email)
	}
	m.byID[u.ID] = u
}

// Remove deletes an account.
func (m *MemAccounts) Remove(id primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

func (m *MemAccounts) GetByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.User{}, m.Err
	}
	ci := text.Fold(email)
	for _, u := range m.byID {
		if u.EmailCI == ci {
			return u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

func (m *MemAccounts) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.User{}, m.Err
	}
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

// MemSessions is an in-memory identity.Sessions.
type MemSessions struct {
	mu      sync.Mutex
	byToken map[string]models.IdentitySession

	// Err, when set, is returned by every call.
	Err error
}

// NewMemSessions returns an empty session store.
func NewMemSessions() *MemSessions {
	return &MemSessions{byToken: make(map[string]models.IdentitySession)}
}

func (m *MemSessions) Create(ctx context.Context, s models.IdentitySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.byToken[s.Token] = s
	return nil
}

func (m *MemSessions) GetByToken(ctx context.Context, token string) (models.IdentitySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.IdentitySession{}, m.Err
	}
	s, ok := m.byToken[token]
	if !ok {
		return models.IdentitySession{}, mongo.ErrNoDocuments
	}
	return s, nil
}

func (m *MemSessions) DeleteByToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.byToken, token)
	return nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (m *MemSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for tok, s := range m.byToken {
		if s.Expired(now) {
			delete(m.byToken, tok)
			n++
		}
	}
	return n, nil
}

// DeleteByUser removes every session belonging to userID.
func (m *MemSessions) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for tok, s := range m.byToken {
		if s.UserID == userID {
			delete(m.byToken, tok)
			n++
		}
	}
	return n, nil
}

// CountActive counts sessions that have not expired at now.
func (m *MemSessions) CountActive(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, s := range m.byToken {
		if !s.Expired(now) {
			n++
		}
	}
	return n, nil
}

// Len returns the number of live session records.
func (m *MemSessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byToken)
}
