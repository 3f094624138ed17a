package validator

import (
	"time"

	"github.com/meshchain/node/chain"
	"github.com/meshchain/node/crypto"
)

// ChainStore is the storage-engine view the validator is allowed to query
// (spec §6.3). The dispatcher's concrete implementation talks to the
// actual storage engine; the validator only ever sees this interface.
type ChainStore interface {
	// LastChainAddress returns the most recent transaction address in the
	// chain identified by a genesis address.
	LastChainAddress(genesisAddr crypto.TaggedHash) (crypto.TaggedHash, bool)
	// LastChainAddressBefore is LastChainAddress restricted to addresses
	// recorded strictly before the given instant.
	LastChainAddressBefore(genesisAddr crypto.TaggedHash, before time.Time) (crypto.TaggedHash, bool)
	// Transaction fetches a transaction by address.
	Transaction(addr crypto.TaggedHash) (*chain.Transaction, bool)
	// FirstTransaction fetches the first transaction of the chain addr
	// belongs to.
	FirstTransaction(addr crypto.TaggedHash) (*chain.Transaction, bool)
	// TransactionExists reports whether a transaction has been recorded
	// at addr.
	TransactionExists(addr crypto.TaggedHash) bool
	// LatestBurnedFees returns the most recent beacon-summary burned-fee
	// total, consulted by the mint_rewards rule.
	LatestBurnedFees() uint64
	// LastTransactionOfType returns the address and recorded timestamp of
	// the most recent transaction of the given type, if any exists.
	LastTransactionOfType(t chain.Type) (addr crypto.TaggedHash, timestamp time.Time, ok bool)
	// KnownOriginPublicKeys lists the public keys presently trusted to
	// produce origin_signature, as established by prior `origin`
	// transactions.
	KnownOriginPublicKeys() []crypto.TaggedKey
	// KeyOriginName resolves the symbolic origin (e.g. "tpm", "software")
	// a previously-registered public key was produced by.
	KeyOriginName(pub crypto.TaggedKey) (string, bool)
	// HasSigned reports whether signer has already recorded a
	// code_approval transaction for the given proposal address.
	HasSigned(proposalAddr crypto.TaggedHash, signer crypto.TaggedKey) bool
}

// PoolsMemTable exposes pool membership (spec §6.3): the set of public
// keys belonging to a named pool, e.g. "technical_council".
type PoolsMemTable interface {
	Members(pool string) map[string]struct{} // keyed by TaggedKey.String()
}

// Schedulers exposes only the last-trigger lookup the validator needs
// (spec §6.3): the schedulers' own cron logic is out of scope.
type Schedulers interface {
	LastTriggerAt(txType chain.Type, now time.Time) time.Time
}

// NodeLookup is the subset of the node membership table the validator
// consults (the node_shared_secrets rule, which checks that authorized
// keys name currently-known nodes).
type NodeLookup interface {
	GetNodeInfo(key crypto.TaggedKey) (chain.NodeRecord, error)
}
