package node

import (
	"sync"
	"testing"

	"github.com/meshchain/node/crypto"
)

func TestIsOriginGenesisAddress(t *testing.T) {
	a := crypto.TaggedHash{0, 1, 2}
	b := crypto.TaggedHash{0, 3, 4}
	r := &Registers{OriginGenesisAddresses: []crypto.TaggedHash{a}}

	if !r.IsOriginGenesisAddress(a) {
		t.Error("expected a to be recognized as origin genesis address")
	}
	if r.IsOriginGenesisAddress(b) {
		t.Error("did not expect b to be recognized")
	}
}

func TestRegistersStoreDefaultsWhenNil(t *testing.T) {
	store := NewRegistersStore(nil)
	got := store.Load()
	if got.ContentMaxSize != DefaultContentMaxSize {
		t.Errorf("ContentMaxSize = %d, want %d", got.ContentMaxSize, DefaultContentMaxSize)
	}
}

func TestRegistersStoreSwapIsAtomic(t *testing.T) {
	initial := &Registers{ContentMaxSize: 100}
	store := NewRegistersStore(initial)

	if got := store.Load(); got.ContentMaxSize != 100 {
		t.Fatalf("ContentMaxSize = %d, want 100", got.ContentMaxSize)
	}

	next := &Registers{ContentMaxSize: 200}
	prev := store.Swap(next)
	if prev.ContentMaxSize != 100 {
		t.Errorf("Swap returned %d, want 100", prev.ContentMaxSize)
	}
	if got := store.Load(); got.ContentMaxSize != 200 {
		t.Errorf("ContentMaxSize after swap = %d, want 200", got.ContentMaxSize)
	}
}

func TestRegistersStoreConcurrentReaders(t *testing.T) {
	store := NewRegistersStore(&Registers{ContentMaxSize: 1})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := store.Load()
			if r.ContentMaxSize <= 0 {
				t.Error("reader observed an invalid generation")
			}
		}()
	}

	for i := 1; i <= 10; i++ {
		store.Swap(&Registers{ContentMaxSize: int64(i)})
	}
	wg.Wait()
}
