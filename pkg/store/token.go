package store

import (
	"time"
)

// Token categories used across the design system.
const (
	CategoryColor      = "color"
	CategorySpacing    = "spacing"
	CategoryTypography = "typography"
	CategoryShadow     = "shadow"
	CategoryBorder     = "border"
	CategoryMotion     = "motion"
	CategoryOther      = "other"
)

// Token is a named design token. The raw value is an opaque string
// ("#3b82f6", "1rem", "0 1px 2px rgba(0,0,0,0.1)"); interpretation is left
// to rule execution. Derivation rules live on the dependency graph, not on
// the token itself.
type Token struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy safe to hand out to callers.
func (t *Token) Clone() *Token {
	c := *t
	return &c
}

// TokenStore holds tokens by unique name. Insertion order is preserved so
// listings and traversals stay deterministic across runs.
//
// The store performs no locking; the Registry documents the single-writer
// discipline callers must follow.
type TokenStore struct {
	tokens map[string]*Token
	order  []string
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]*Token),
	}
}

// Add inserts a token. Fails with ErrDuplicateToken if the name is taken.
func (s *TokenStore) Add(t *Token) error {
	if _, exists := s.tokens[t.Name]; exists {
		return DuplicateTokenError(t.Name)
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	s.tokens[t.Name] = t
	s.order = append(s.order, t.Name)
	return nil
}

// Get returns the token with the given name.
func (s *TokenStore) Get(name string) (*Token, bool) {
	t, ok := s.tokens[name]
	return t, ok
}

// Has reports whether a token with the given name exists.
func (s *TokenStore) Has(name string) bool {
	_, ok := s.tokens[name]
	return ok
}

// SetValue replaces a token's raw value. Values are never mutated in place.
func (s *TokenStore) SetValue(name, value string) error {
	t, ok := s.tokens[name]
	if !ok {
		return TokenNotFoundError("SetValue", name)
	}
	t.Value = value
	t.UpdatedAt = time.Now()
	return nil
}

// Remove deletes a token. Reference checks are the Registry's job.
func (s *TokenStore) Remove(name string) error {
	if _, ok := s.tokens[name]; !ok {
		return TokenNotFoundError("RemoveToken", name)
	}
	delete(s.tokens, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Names returns all token names in insertion order.
func (s *TokenStore) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	return len(s.tokens)
}
