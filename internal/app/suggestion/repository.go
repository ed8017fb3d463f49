// Package suggestion stores and pages through landing-site feedback.
//
// Suggestions are written once by guests and read newest-first by the
// administrator. Ordering is decided by the store's created_at (with _id as a
// tiebreak); client-supplied timestamps are never used.
//
// FetchPage reports HasMore when a page comes back full. That is a heuristic:
// when the total is an exact multiple of the page size the caller makes one
// extra round trip that returns an empty page. No count query is issued.
package suggestion

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/hakbangquest/hakbangweb/internal/app/system/metrics"
	"github.com/hakbangquest/hakbangweb/internal/domain/models"
	"go.uber.org/zap"
)

// Collection is the document store collection holding suggestions.
const Collection = "suggestions"

// Field limits, in runes, applied after trimming.
const (
	MaxNameLen = 100
	MaxTextLen = 2000
)

// DefaultPageSize is the page size the admin view asks for.
const DefaultPageSize = 10

// NewDocument is what Submit hands to the store. The store assigns the
// document id and the created_at timestamp.
type NewDocument struct {
	Name      string
	Text      string
	Submitter models.Submitter
}

// DocumentStore is the hosted document database as seen by the repository.
type DocumentStore interface {
	// Insert writes exactly one document and returns it as stored.
	Insert(ctx context.Context, doc NewDocument) (models.Suggestion, error)
	// Query returns up to limit suggestions newest first, strictly after
	// the given position when it is non-nil.
	Query(ctx context.Context, after *Position, limit int) ([]models.Suggestion, error)
}

// Page is one slice of the newest-first listing.
type Page struct {
	Items      []models.Suggestion
	NextCursor Cursor // zero when Items is empty
	HasMore    bool   // len(Items) == page size
}

// Repository validates submissions and pages through stored suggestions.
type Repository struct {
	store DocumentStore
	log   *zap.Logger
}

// New constructs a Repository over the given store.
func New(store DocumentStore, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, log: logger}
}

// Submit validates name and text and persists one guest suggestion. Both are
// stored exactly as given apart from surrounding whitespace; the API is JSON
// and nothing here renders them as HTML. Validation failures never reach the
// store. There is no retry: on
// ErrStoreUnavailable the caller must resubmit.
func (r *Repository) Submit(ctx context.Context, name, text string) (models.Suggestion, error) {
	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)

	if err := validateField("name", name, MaxNameLen); err != nil {
		metrics.SuggestionSubmitted(metrics.OutcomeInvalid)
		return models.Suggestion{}, err
	}
	if err := validateField("text", text, MaxTextLen); err != nil {
		metrics.SuggestionSubmitted(metrics.OutcomeInvalid)
		return models.Suggestion{}, err
	}

	s, err := r.store.Insert(ctx, NewDocument{
		Name:      name,
		Text:      text,
		Submitter: models.GuestSubmitter(),
	})
	if err != nil {
		metrics.SuggestionSubmitted(metrics.OutcomeUnavailable)
		r.log.Warn("suggestion insert failed", zap.Error(err))
		return models.Suggestion{}, storeUnavailable("insert", err)
	}

	metrics.SuggestionSubmitted(metrics.OutcomeOK)
	return s, nil
}

// FetchPage returns up to pageSize suggestions newest first, starting
// strictly after cursor. A zero cursor starts at the newest suggestion.
// Each call is independent; suggestions submitted while paging may appear
// or be skipped at page boundaries.
func (r *Repository) FetchPage(ctx context.Context, cursor Cursor, pageSize int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, &ValidationError{Field: "page_size", Reason: "must be positive"}
	}
	pos, err := cursor.Position()
	if err != nil {
		return Page{}, err
	}

	items, err := r.store.Query(ctx, pos, pageSize)
	if err != nil {
		metrics.SuggestionPageFetched(metrics.OutcomeUnavailable)
		r.log.Warn("suggestion query failed", zap.Error(err))
		return Page{}, storeUnavailable("query", err)
	}
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	page := Page{Items: items, HasMore: len(items) == pageSize}
	if n := len(items); n > 0 {
		last := items[n-1]
		page.NextCursor = CursorAt(last.CreatedAt, last.ID)
	}

	metrics.SuggestionPageFetched(metrics.OutcomeOK)
	return page, nil
}

func validateField(field, value string, max int) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{Field: field, Reason: "is too long"}
	}
	return nil
}

// IsValidation reports whether err is an input error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsStoreUnavailable reports whether err came from a failed store call.
func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }
