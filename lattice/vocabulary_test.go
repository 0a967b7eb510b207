// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package lattice_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetengo-go/tetengo/lattice"
)

type countingVocabulary struct {
	calls   atomic.Int64
	entered chan struct{} // closed once, on the first call to enter
	release chan struct{}
}

func (v *countingVocabulary) CandidatesAt(int) []lattice.Candidate { return nil }

func (v *countingVocabulary) TransitionCost(lattice.Node, []byte) int64 {
	if v.calls.Add(1) == 1 && v.entered != nil {
		close(v.entered)
	}
	if v.release != nil {
		<-v.release
	}
	return 1
}

func TestVocabularyRegistry(t *testing.T) {
	const name = "test-registry-vocabulary"
	lattice.RegisterVocabularyFactory(name, func(config any) (lattice.Vocabulary, error) {
		return &countingVocabulary{}, nil
	})

	assert.Contains(t, lattice.ListVocabularies(), name)

	v, err := lattice.GetVocabulary(name, nil)
	require.NoError(t, err)
	require.NotNil(t, v)

	_, err = lattice.GetVocabulary("no-such-vocabulary", nil)
	assert.Error(t, err)
}

func TestWithCacheDeduplicatesConcurrentCalls(t *testing.T) {
	inner := &countingVocabulary{entered: make(chan struct{}), release: make(chan struct{})}
	cached := lattice.WithCache(inner)
	node := lattice.Node{}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cached.TransitionCost(node, []byte("same-key"))
	}()
	<-inner.entered // the leader call is now in flight, blocked on release

	const followers = 7
	wg.Add(followers)
	for i := 0; i < followers; i++ {
		go func() {
			defer wg.Done()
			cached.TransitionCost(node, []byte("same-key"))
		}()
	}
	time.Sleep(20 * time.Millisecond) // give followers time to join the in-flight call
	close(inner.release)
	wg.Wait()

	assert.Equal(t, int64(1), inner.calls.Load())
}
