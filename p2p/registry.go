package p2p

import (
	"errors"
	"sort"
	"sync"

	"github.com/meshchain/node/chain"
	"github.com/meshchain/node/crypto"
)

// ErrNodeNotFound is returned when a lookup names a public key the
// registry has never seen.
var ErrNodeNotFound = errors.New("p2p: node not found")

// NodeRegistry is the in-memory membership table referenced by
// chain.NodeRecord's doc comment. A node enters the table pending (added
// by a `node` transaction but not yet authorized), transitions to
// authorized once an origin-backed authorization event admits it, and
// independently flips between available and unavailable as connectivity
// changes are observed. Safe for concurrent use: one writer updates
// membership during transaction processing, many readers consult it from
// the validator and dispatcher.
type NodeRegistry struct {
	mu    sync.RWMutex
	nodes map[string]*chain.NodeRecord // hex(FirstPublicKey) -> record
}

// NewNodeRegistry returns an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{nodes: make(map[string]*chain.NodeRecord)}
}

func keyOf(k crypto.TaggedKey) string {
	return k.String()
}

// Register inserts or replaces a node record, pending authorization
// unless the caller has already set Authorized on rec. This is how a
// validated `node` transaction is reflected into the membership table.
func (r *NodeRegistry) Register(rec chain.NodeRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copyRec := rec
	r.nodes[keyOf(rec.FirstPublicKey)] = &copyRec
}

// Authorize transitions a pending node to authorized, stamping the
// authorization date. Returns ErrNodeNotFound if the key is unknown.
func (r *NodeRegistry) Authorize(key crypto.TaggedKey, at uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[keyOf(key)]
	if !ok {
		return ErrNodeNotFound
	}
	n.Authorized = true
	n.AuthorizationDate = at
	return nil
}

// SetNodeGloballyAvailable marks a node available, the transition a
// NotifyEndOfNodeSync or NodeAvailability request drives. Returns
// ErrNodeNotFound if the key is unknown.
func (r *NodeRegistry) SetNodeGloballyAvailable(key crypto.TaggedKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[keyOf(key)]
	if !ok {
		return ErrNodeNotFound
	}
	n.Available = true
	return nil
}

// SetNodeUnavailable is the inverse transition, driven when a connection
// to the node is lost.
func (r *NodeRegistry) SetNodeUnavailable(key crypto.TaggedKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[keyOf(key)]
	if !ok {
		return ErrNodeNotFound
	}
	n.Available = false
	return nil
}

// ListNodes returns every known node, pending or authorized.
func (r *NodeRegistry) ListNodes() []chain.NodeRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]chain.NodeRecord, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, *n)
	}
	return out
}

// AuthorizedNodes returns only nodes that have completed authorization.
func (r *NodeRegistry) AuthorizedNodes() []chain.NodeRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]chain.NodeRecord, 0, len(r.nodes))
	for _, n := range r.nodes {
		if n.Authorized {
			out = append(out, *n)
		}
	}
	return out
}

// GetNodeInfo looks up a single node by its first public key.
func (r *NodeRegistry) GetNodeInfo(key crypto.TaggedKey) (chain.NodeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[keyOf(key)]
	if !ok {
		return chain.NodeRecord{}, ErrNodeNotFound
	}
	return *n, nil
}

// NearestNodes returns authorized nodes ordered by network-patch
// proximity to patch, closest first. Proximity is the count of leading
// hex characters patch shares with each node's NetworkPatch; ties break
// on key order for determinism.
func (r *NodeRegistry) NearestNodes(patch string) []chain.NodeRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]chain.NodeRecord, 0, len(r.nodes))
	for _, n := range r.nodes {
		if n.Authorized {
			out = append(out, *n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := patchDistance(patch, out[i].NetworkPatch), patchDistance(patch, out[j].NetworkPatch)
		if di != dj {
			return di > dj
		}
		return out[i].FirstPublicKey.String() < out[j].FirstPublicKey.String()
	})
	return out
}

// patchDistance counts the leading hex characters two 3-char patches
// share in common.
func patchDistance(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// NodesAvailabilityAsBits reports, in the same order as keys, whether
// each named node is currently available. Unknown keys report false.
func (r *NodeRegistry) NodesAvailabilityAsBits(keys []crypto.TaggedKey) []bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]bool, len(keys))
	for i, k := range keys {
		if n, ok := r.nodes[keyOf(k)]; ok {
			out[i] = n.Available
		}
	}
	return out
}
