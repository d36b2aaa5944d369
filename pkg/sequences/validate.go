package sequences

import (
	"errors"
	"fmt"

	"github.com/gcamillo/leadflow/pkg/models"
)

var (
	ErrEmptySequence = errors.New("sequence has no steps")
	ErrCyclicGraph   = errors.New("sequence step graph contains a cycle")
)

// ValidateGraph checks a sequence's step graph at registration time: step IDs
// must be unique, next/alternative references must resolve, and the graph
// must be acyclic. A cyclic graph would keep an enrollment alive forever, so
// it is a configuration error, not a runtime concern.
func ValidateGraph(seq *models.NurtureSequence) error {
	if len(seq.Steps) == 0 {
		return ErrEmptySequence
	}

	stepIDs := make(map[string]bool, len(seq.Steps))
	for _, s := range seq.Steps {
		if stepIDs[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}

		stepIDs[s.ID] = true
	}

	edges := make(map[string][]string, len(seq.Steps))

	for _, s := range seq.Steps {
		for _, ref := range []*string{s.NextStepID, s.AlternativeStepID} {
			if ref == nil {
				continue
			}

			if !stepIDs[*ref] {
				return fmt.Errorf("step %q references unknown step %q", s.ID, *ref)
			}

			edges[s.ID] = append(edges[s.ID], *ref)
		}
	}

	// Kahn's algorithm over next/alternative edges.
	inDegree := make(map[string]int, len(seq.Steps))
	for id := range stepIDs {
		inDegree[id] = 0
	}

	for _, targets := range edges {
		for _, target := range targets {
			inDegree[target]++
		}
	}

	queue := make([]string, 0, len(seq.Steps))
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++

		for _, target := range edges[node] {
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	if visited != len(stepIDs) {
		return ErrCyclicGraph
	}

	return nil
}
