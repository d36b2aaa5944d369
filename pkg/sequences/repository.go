// Package sequences holds the nurture sequence repository and step graph
// validation.
package sequences

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcamillo/leadflow/pkg/models"
)

var ErrSequenceNotFound = errors.New("nurture sequence not found")

// Repository is an in-memory store of nurture sequences. Like the rule
// repository it swaps sequences whole, so in-flight runners see a consistent
// version.
type Repository struct {
	mu        sync.RWMutex
	sequences map[string]*models.NurtureSequence
}

func NewRepository() *Repository {
	return &Repository{
		sequences: make(map[string]*models.NurtureSequence),
	}
}

// NewDefaultRepository returns a repository seeded with the default
// sequences.
func NewDefaultRepository() *Repository {
	repo := NewRepository()

	for _, seq := range DefaultSequences() {
		if _, err := repo.Create(seq); err != nil {
			panic("default sequence invalid: " + err.Error())
		}
	}

	return repo
}

// Create validates the step graph and stores the sequence.
func (r *Repository) Create(seq *models.NurtureSequence) (*models.NurtureSequence, error) {
	if err := ValidateGraph(seq); err != nil {
		return nil, err
	}

	if seq.ID == "" {
		seq.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	seq.CreatedAt = now
	seq.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequences[seq.ID] = seq

	return seq, nil
}

func (r *Repository) FetchByID(id string) (*models.NurtureSequence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seq, ok := r.sequences[id]
	if !ok {
		return nil, ErrSequenceNotFound
	}

	return seq, nil
}

func (r *Repository) FetchAll() []*models.NurtureSequence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.NurtureSequence, 0, len(r.sequences))
	for _, seq := range r.sequences {
		all = append(all, seq)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})

	return all
}

func (r *Repository) Update(id string, seq *models.NurtureSequence) (*models.NurtureSequence, error) {
	if err := ValidateGraph(seq); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sequences[id]
	if !ok {
		return nil, ErrSequenceNotFound
	}

	seq.ID = id
	seq.CreatedAt = existing.CreatedAt
	seq.UpdatedAt = time.Now().UTC()
	r.sequences[id] = seq

	return seq, nil
}

// FirstStep returns the entry step of a sequence, which is by convention the
// first declared step.
func FirstStep(seq *models.NurtureSequence) *models.NurtureStep {
	if len(seq.Steps) == 0 {
		return nil
	}

	return &seq.Steps[0]
}

// StepByID finds a step within the sequence.
func StepByID(seq *models.NurtureSequence, id string) (*models.NurtureStep, bool) {
	for i := range seq.Steps {
		if seq.Steps[i].ID == id {
			return &seq.Steps[i], true
		}
	}

	return nil, false
}
