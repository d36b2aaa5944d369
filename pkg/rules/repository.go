// Package rules holds the routing rule repository and the rule matcher.
package rules

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcamillo/leadflow/pkg/models"
)

var ErrRuleNotFound = errors.New("routing rule not found")

// Repository is an in-memory store of routing rules. Rules are replaced
// whole on update, so concurrent matchers always observe either the old or
// the new version of a rule, never a partial write.
type Repository struct {
	mu    sync.RWMutex
	rules map[string]*models.RoutingRule
}

func NewRepository() *Repository {
	return &Repository{
		rules: make(map[string]*models.RoutingRule),
	}
}

// NewDefaultRepository returns a repository seeded with the default routing
// rules.
func NewDefaultRepository() *Repository {
	repo := NewRepository()

	for _, rule := range DefaultRules() {
		_, _ = repo.Create(rule)
	}

	return repo
}

// Create stores a new rule. The ID is generated when the caller leaves it
// empty and is immutable afterwards.
func (r *Repository) Create(rule *models.RoutingRule) (*models.RoutingRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	for i := range rule.Actions {
		if err := rule.Actions[i].Validate(); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules[rule.ID] = rule

	return rule, nil
}

func (r *Repository) FetchByID(id string) (*models.RoutingRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}

	return rule, nil
}

// FetchAll returns all rules sorted by ascending priority.
func (r *Repository) FetchAll() []*models.RoutingRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.RoutingRule, 0, len(r.rules))
	for _, rule := range r.rules {
		all = append(all, rule)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Priority < all[j].Priority
	})

	return all
}

func (r *Repository) Update(id string, rule *models.RoutingRule) (*models.RoutingRule, error) {
	for i := range rule.Actions {
		if err := rule.Actions[i].Validate(); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}

	rule.ID = id
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()
	r.rules[id] = rule

	return rule, nil
}

func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[id]; !ok {
		return ErrRuleNotFound
	}

	delete(r.rules, id)

	return nil
}
