package wire

import (
	"github.com/meshchain/node/chain"
	"github.com/meshchain/node/crypto"
)

// Frame is any request or response variant. Tag returns the byte that
// prefixes the frame's wire encoding.
type Frame interface {
	Tag() byte
}

// --- requests (tags 0-24) ---------------------------------------------

type GetBootstrappingNodes struct{ Patch [3]byte }

func (GetBootstrappingNodes) Tag() byte { return TagGetBootstrappingNodes }

type GetStorageNonce struct{ PublicKey crypto.TaggedKey }

func (GetStorageNonce) Tag() byte { return TagGetStorageNonce }

type ListNodes struct{}

func (ListNodes) Tag() byte { return TagListNodes }

type GetTransaction struct{ Address crypto.TaggedHash }

func (GetTransaction) Tag() byte { return TagGetTransaction }

// GetTransactionChain's After field is optional; presence is inferred from
// whether bytes remain in the frame once Address has been read (see the
// Open Question in DESIGN.md about the source's discard-then-rebuild
// branch, which this codec does not replicate).
type GetTransactionChain struct {
	Address crypto.TaggedHash
	After   *uint32
}

func (GetTransactionChain) Tag() byte { return TagGetTransactionChain }

type GetUnspentOutputs struct{ Address crypto.TaggedHash }

func (GetUnspentOutputs) Tag() byte { return TagGetUnspentOutputs }

type NewTransaction struct{ Tx *chain.Transaction }

func (NewTransaction) Tag() byte { return TagNewTransaction }

type StartMining struct {
	Tx         *chain.Transaction
	WelcomeKey crypto.TaggedKey
	Keys       []crypto.TaggedKey
}

func (StartMining) Tag() byte { return TagStartMining }

// AddMiningContext carries three "views" (chain, beacon, IO readiness
// bitmaps), each independently length-prefixed; their lengths may differ.
type AddMiningContext struct {
	Hash  crypto.TaggedHash
	Key   crypto.TaggedKey
	Keys  []crypto.TaggedKey
	Views [3][]bool
}

func (AddMiningContext) Tag() byte { return TagAddMiningContext }

// CrossValidate's ReplicationTree holds three v*w bit matrices (chain,
// beacon, IO) of identical shape, stored row-major.
type CrossValidate struct {
	Address         crypto.TaggedHash
	Stamp           []byte
	V, W            uint8
	ReplicationTree [3][]bool
}

func (CrossValidate) Tag() byte { return TagCrossValidate }

type CrossValidationDone struct {
	Address crypto.TaggedHash
	Stamp   []byte
}

func (CrossValidationDone) Tag() byte { return TagCrossValidationDone }

// ReplicationRoles is a 3-bit, MSB-first field: chain, IO, beacon.
type ReplicationRoles struct {
	Chain, IO, Beacon bool
}

type ReplicateTransaction struct {
	Tx         *chain.Transaction
	Roles      ReplicationRoles
	AckStorage bool
}

func (ReplicateTransaction) Tag() byte { return TagReplicateTransaction }

type AcknowledgeStorage struct{ Address crypto.TaggedHash }

func (AcknowledgeStorage) Tag() byte { return TagAcknowledgeStorage }

type NotifyEndOfNodeSync struct {
	Key       crypto.TaggedKey
	Timestamp uint32
}

func (NotifyEndOfNodeSync) Tag() byte { return TagNotifyEndOfNodeSync }

type GetLastTransaction struct{ Address crypto.TaggedHash }

func (GetLastTransaction) Tag() byte { return TagGetLastTransaction }

type GetBalance struct{ Address crypto.TaggedHash }

func (GetBalance) Tag() byte { return TagGetBalance }

type GetTransactionInputs struct{ Address crypto.TaggedHash }

func (GetTransactionInputs) Tag() byte { return TagGetTransactionInputs }

type GetTransactionChainLength struct{ Address crypto.TaggedHash }

func (GetTransactionChainLength) Tag() byte { return TagGetTransactionChainLength }

type GetP2PView struct{ Keys []crypto.TaggedKey }

func (GetP2PView) Tag() byte { return TagGetP2PView }

type GetFirstPublicKey struct{ Address crypto.TaggedHash }

func (GetFirstPublicKey) Tag() byte { return TagGetFirstPublicKey }

type GetLastTransactionAddress struct {
	Address   crypto.TaggedHash
	Timestamp uint32
}

func (GetLastTransactionAddress) Tag() byte { return TagGetLastTransactionAddress }

type NotifyLastTransactionAddress struct {
	PreviousAddress crypto.TaggedHash
	NewAddress      crypto.TaggedHash
	Timestamp       uint32
}

func (NotifyLastTransactionAddress) Tag() byte { return TagNotifyLastTransactionAddr }

type GetTransactionSummary struct{ Address crypto.TaggedHash }

func (GetTransactionSummary) Tag() byte { return TagGetTransactionSummary }

type NodeAvailability struct{ Key crypto.TaggedKey }

func (NodeAvailability) Tag() byte { return TagNodeAvailability }

type Ping struct{}

func (Ping) Tag() byte { return TagPing }

// --- responses (tags 239-255) ------------------------------------------

type Error struct{ Reason ErrorReason }

func (Error) Tag() byte { return TagError }

type Ok struct{}

func (Ok) Tag() byte { return TagOk }

// TransactionResponse is a transparent alias (see DESIGN.md Open Question):
// its body is the transaction's canonical serialisation behind a 32-bit
// length prefix, decoded with chain.Deserialize, not a wrapped sub-frame.
type TransactionResponse struct{ Tx *chain.Transaction }

func (TransactionResponse) Tag() byte { return TagTransaction }

type NotFound struct{}

func (NotFound) Tag() byte { return TagNotFound }

type TransactionList struct{ Transactions []*chain.Transaction }

func (TransactionList) Tag() byte { return TagTransactionList }

// Balance's sub-unit integer amounts round-trip exactly through the wire's
// binary64 encoding for all values up to 2^53 (see balance.go).
type Balance struct {
	UCO    uint64
	Tokens map[string]uint64 // hex(token address) -> sub-unit amount
}

func (Balance) Tag() byte { return TagBalance }

type UnspentOutput struct {
	From   crypto.TaggedHash
	Amount uint64
	Type   chain.Type
}

type UnspentOutputList struct{ Outputs []UnspentOutput }

func (UnspentOutputList) Tag() byte { return TagUnspentOutputList }

type BootstrappingNodes struct{ Nodes []chain.NodeRecord }

func (BootstrappingNodes) Tag() byte { return TagBootstrappingNodes }

type LastTransactionAddress struct {
	Address   crypto.TaggedHash
	Timestamp uint32
}

func (LastTransactionAddress) Tag() byte { return TagLastTransactionAddress }

type FirstPublicKey struct{ PublicKey crypto.TaggedKey }

func (FirstPublicKey) Tag() byte { return TagFirstPublicKey }

type TransactionSummary struct {
	Address crypto.TaggedHash
	Type    chain.Type
}

func (TransactionSummary) Tag() byte { return TagTransactionSummary }

type EncryptedStorageNonce struct{ Nonce []byte }

func (EncryptedStorageNonce) Tag() byte { return TagEncryptedStorageNonce }

type P2PView struct{ Availability []bool }

func (P2PView) Tag() byte { return TagP2PView }

type TransactionInputList struct{ Outputs []UnspentOutput }

func (TransactionInputList) Tag() byte { return TagTransactionInputList }

// TransactionChainLength is a transparent alias (see DESIGN.md Open
// Question): its decoder returns exactly the u32 decode pair, unwrapped.
type TransactionChainLength struct{ Length uint32 }

func (TransactionChainLength) Tag() byte { return TagTransactionChainLength }

type NodeList struct{ Nodes []chain.NodeRecord }

func (NodeList) Tag() byte { return TagNodeList }
