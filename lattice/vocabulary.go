// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package lattice

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Candidate is one successor node a [Vocabulary] offers at a given step,
// before it has been placed into the lattice. SpanStart is the step at
// which the node begins (its PrecedingStep); the node occupies
// [SpanStart, step).
type Candidate struct {
	Key       []byte
	SpanStart int
	NodeCost  int64
}

// Vocabulary is the caller-supplied oracle of spec.md §6: for a given step
// it offers candidate successor nodes, and for a predecessor/key pair it
// prices the transition between them. Implementations may be backed by a
// trie lookup, a static table, or a dictionary file; none of those
// collaborators live in this module.
type Vocabulary interface {
	// CandidatesAt returns every candidate node ending at step i.
	CandidatesAt(i int) []Candidate
	// TransitionCost prices moving from prev to a node carrying key.
	TransitionCost(prev Node, key []byte) int64
}

// VocabularyFactory constructs a Vocabulary from implementation-specific
// configuration. Concrete factories live outside this module (trie-backed,
// static-table-backed, dictionary-file-backed, per spec.md §6); this
// package only defines the registry they self-register into.
type VocabularyFactory func(config any) (Vocabulary, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]VocabularyFactory{}
)

// RegisterVocabularyFactory registers fn under name, so [GetVocabulary] can
// later construct a Vocabulary by name without this package importing the
// concrete implementation. Re-registering an existing name overwrites it,
// matching the teacher's registration style.
func RegisterVocabularyFactory(name string, fn VocabularyFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// GetVocabulary constructs the Vocabulary registered under name, passing it
// config. It returns an error if no factory is registered under name or if
// the factory itself fails.
func GetVocabulary(name string, config any) (Vocabulary, error) {
	registryMu.RLock()
	fn, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("lattice: no vocabulary factory registered under %q", name)
	}
	return fn(config)
}

// ListVocabularies returns the names currently registered, in no
// particular order.
func ListVocabularies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// cachedVocabulary wraps a Vocabulary's TransitionCost with request
// de-duplication via singleflight, so concurrent Viterbi/A* runs sharing
// one Vocabulary instance collapse duplicate expensive computations (e.g.
// a dictionary-file lookup) into one in-flight call.
type cachedVocabulary struct {
	inner Vocabulary
	group singleflight.Group
}

// WithCache wraps v so concurrent TransitionCost calls for the same
// (prev, key) pair that overlap in time share a single underlying call.
// Results are not kept once that call returns: a later call for the same
// pair calls v again.
func WithCache(v Vocabulary) Vocabulary {
	return &cachedVocabulary{inner: v}
}

func (c *cachedVocabulary) CandidatesAt(i int) []Candidate {
	return c.inner.CandidatesAt(i)
}

func (c *cachedVocabulary) TransitionCost(prev Node, key []byte) int64 {
	// prev must be identified fully: PrecedingStep+BestPred alone collide
	// for two distinct predecessor nodes at the same step that happen to
	// share a BestPred but differ in Key or NodeCost.
	k := fmt.Sprintf("%d:%d:%s:%d:%s", prev.PrecedingStep, prev.BestPred, prev.Key, prev.NodeCost, key)
	v, _, _ := c.group.Do(k, func() (any, error) {
		return c.inner.TransitionCost(prev, key), nil
	})
	return v.(int64)
}
