package node

import (
	"sync/atomic"

	"github.com/meshchain/node/crypto"
)

// Registers holds the process-wide configuration values the validator
// consults on every admission check (spec §5 "Shared state", §6.3
// "Process-wide configuration registers"). It is built once at bootstrap
// and thereafter replaced, never mutated in place, so a concurrent reader
// always observes one fully-formed generation.
type Registers struct {
	NodeSharedSecretsGenesisAddress crypto.TaggedHash
	OriginGenesisAddresses          []crypto.TaggedHash
	RewardGenesisAddress            crypto.TaggedHash
	AllowedNodeKeyOrigins           []string
	ContentMaxSize                  int64
}

// DefaultContentMaxSize is the content_max_size default named in spec.md
// §3: 3.5 MiB.
const DefaultContentMaxSize = 3*1024*1024 + 512*1024

// IsOriginGenesisAddress reports whether addr matches one of the
// configured origin-chain genesis addresses.
func (r *Registers) IsOriginGenesisAddress(addr crypto.TaggedHash) bool {
	for _, a := range r.OriginGenesisAddresses {
		if a.Equal(addr) {
			return true
		}
	}
	return false
}

// RegistersStore is a single-writer/many-readers holder for a *Registers
// generation, swapped atomically so readers never observe a partially
// updated set (modeled on the teacher's config-manager atomic-swap
// discipline).
type RegistersStore struct {
	current atomic.Pointer[Registers]
}

// NewRegistersStore returns a store seeded with the given initial
// generation.
func NewRegistersStore(initial *Registers) *RegistersStore {
	s := &RegistersStore{}
	if initial == nil {
		initial = &Registers{ContentMaxSize: DefaultContentMaxSize}
	}
	s.current.Store(initial)
	return s
}

// Load returns the current generation. The returned pointer is never
// mutated by the store; callers may retain it safely across a later
// Swap.
func (s *RegistersStore) Load() *Registers {
	return s.current.Load()
}

// Swap atomically replaces the current generation with next, returning
// the previous one.
func (s *RegistersStore) Swap(next *Registers) *Registers {
	return s.current.Swap(next)
}
