package dispatch

import (
	"time"

	"github.com/meshchain/node/chain"
	"github.com/meshchain/node/crypto"
	"github.com/meshchain/node/validator"
)

// Store is the storage-engine surface the dispatcher talks to directly
// (spec §6.3 ChainStore, extended with the read/write paths the request
// table in §6.2 needs beyond what the validator consults). It embeds
// validator.ChainStore so a single concrete implementation satisfies both.
type Store interface {
	validator.ChainStore

	// LastChainAddress and LastChainAddressBefore are exposed
	// directly by validator.ChainStore; the remaining methods below back
	// the read-only request frames.
	GetTransactionChain(addr crypto.TaggedHash, after *uint32) ([]*chain.Transaction, error)
	GetUnspentOutputs(addr crypto.TaggedHash) ([]UnspentOutput, error)
	GetLastTransaction(addr crypto.TaggedHash) (*chain.Transaction, bool)
	GetBalance(addr crypto.TaggedHash) (uco uint64, tokens map[string]uint64)
	GetTransactionInputs(addr crypto.TaggedHash) ([]UnspentOutput, error)
	GetTransactionChainLength(addr crypto.TaggedHash) uint32
	GetFirstPublicKey(addr crypto.TaggedHash) (crypto.TaggedKey, bool)
	GetLastTransactionAddress(addr crypto.TaggedHash, before uint32) (crypto.TaggedHash, uint32, bool)
	GetTransactionSummary(addr crypto.TaggedHash) (chain.Type, bool)
	// LocalStorageNonce returns this node's own storage nonce, still in
	// the clear; GetStorageNonce (spec §4.1 encrypt_storage_nonce) is the
	// dispatcher's job, not the store's.
	LocalStorageNonce() ([]byte, error)

	// Commit records a validated transaction and notifies dependent
	// chains of its new last-transaction-address. The dispatcher calls
	// this when handling a ReplicateTransaction request; a NewTransaction
	// is not committed by the dispatcher, and a pure validator never
	// calls it.
	Commit(tx *chain.Transaction) error
	// RecordLastTransactionAddress updates the cross-chain pointer
	// carried by NotifyLastTransactionAddress.
	RecordLastTransactionAddress(previous, next crypto.TaggedHash, timestamp uint32) error
}

// UnspentOutput mirrors wire.UnspentOutput so Store implementations don't
// need to import wire.
type UnspentOutput struct {
	From   crypto.TaggedHash
	Amount uint64
	Type   chain.Type
}

// Mesh is the P2P surface the dispatcher consults directly (spec §6.3
// P2P), beyond the validator.NodeLookup subset.
type Mesh interface {
	validator.NodeLookup

	ListNodes() []chain.NodeRecord
	BootstrappingNodes(patch [3]byte) []chain.NodeRecord
	NearestNodes(patch string) []chain.NodeRecord
	SetNodeGloballyAvailable(key crypto.TaggedKey) error
	SetNodeUnavailable(key crypto.TaggedKey) error
	NodesAvailabilityAsBits(keys []crypto.TaggedKey) []bool
}

// Mining is the fire-and-forget coordinator the dispatcher submits mining
// work to (spec §5: "may submit work to the mining coordinator
// (fire-and-forget)"). Every method here returns quickly; none of them
// blocks the calling connection's task.
type Mining interface {
	StartMining(tx *chain.Transaction, welcome crypto.TaggedKey, keys []crypto.TaggedKey)
	AddContext(hash crypto.TaggedHash, key crypto.TaggedKey, keys []crypto.TaggedKey, views [3][]bool)
	CrossValidate(addr crypto.TaggedHash, stamp []byte, v, w uint8, tree [3][]bool)
	CrossValidationDone(addr crypto.TaggedHash, stamp []byte)
	AcknowledgeStorage(addr crypto.TaggedHash)
	NotifyEndOfNodeSync(key crypto.TaggedKey, timestamp uint32)
}

// Schedulers is reused verbatim from validator; the dispatcher never
// queries it directly, only the validator does.
type Schedulers = validator.Schedulers

// DefaultMiningTimeout is the default bound process(NewTransaction) waits
// for transaction_accepted before reporting a network_issue error (spec
// §5 "mining_timeout, configurable, default 60 s").
const DefaultMiningTimeout = 60 * time.Second
