// Package dispatch implements the dispatcher (C4): a pure function from a
// decoded wire.Frame request, the current time, and a handful of
// collaborators to the wire.Frame response spec.md §6.2 names for that
// request. It owns no state of its own beyond what Deps carries in.
package dispatch

import (
	"context"
	"time"

	"github.com/meshchain/node/chain"
	"github.com/meshchain/node/crypto"
	"github.com/meshchain/node/node"
	"github.com/meshchain/node/validator"
	"github.com/meshchain/node/wire"
)

// Deps bundles every collaborator a request might need (spec §6.3). A
// single Deps value is shared by every connection's dispatcher task; its
// fields are themselves safe for concurrent use (Store/Mesh/Mining
// implementations, node.RegistersStore's atomic swap, node.RequestTracker's
// EventBus).
type Deps struct {
	Store         Store
	Mesh          Mesh
	Mining        Mining
	Tracker       *node.RequestTracker
	Registers     *node.RegistersStore
	Pools         validator.PoolsMemTable
	Schedulers    Schedulers
	SigCache      *crypto.SignatureCache
	MiningTimeout time.Duration
}

func (d Deps) miningTimeout() time.Duration {
	if d.MiningTimeout > 0 {
		return d.MiningTimeout
	}
	return DefaultMiningTimeout
}

func (d Deps) validatorConfig() validator.Config {
	regs := d.Registers.Load()
	return validator.Config{
		NodeSharedSecretsGenesisAddress: regs.NodeSharedSecretsGenesisAddress,
		OriginGenesisAddresses:          regs.OriginGenesisAddresses,
		RewardGenesisAddress:            regs.RewardGenesisAddress,
		AllowedNodeKeyOrigins:           regs.AllowedNodeKeyOrigins,
		ContentMaxSize:                  regs.ContentMaxSize,
	}
}

func (d Deps) validatorCollaborators() validator.Collaborators {
	return validator.Collaborators{
		ChainStore: d.Store,
		Pools:      d.Pools,
		Schedulers: d.Schedulers,
		Nodes:      d.Mesh,
		SigCache:   d.SigCache,
	}
}

// Process handles one decoded request frame and returns the response
// frame to encode back to the peer (spec §6.2's mapping table). ctx only
// bounds the single suspension point process(NewTransaction) has (spec
// §5): awaiting transaction_accepted/transaction_rejected. Every other
// request is handled synchronously against Deps's collaborators.
func Process(ctx context.Context, req wire.Frame, now time.Time, d Deps) (wire.Frame, error) {
	switch f := req.(type) {
	case wire.GetBootstrappingNodes:
		return wire.BootstrappingNodes{Nodes: d.Mesh.BootstrappingNodes(f.Patch)}, nil

	case wire.GetStorageNonce:
		nonce, err := d.Store.LocalStorageNonce()
		if err != nil {
			return wire.Error{Reason: wire.ReasonNetworkIssue}, nil
		}
		encrypted, err := crypto.EncryptStorageNonce(f.PublicKey, nonce)
		if err != nil {
			return wire.Error{Reason: wire.ReasonInvalidTransaction}, nil
		}
		return wire.EncryptedStorageNonce{Nonce: encrypted}, nil

	case wire.ListNodes:
		return wire.NodeList{Nodes: d.Mesh.ListNodes()}, nil

	case wire.GetTransaction:
		tx, ok := d.Store.Transaction(f.Address)
		if !ok {
			return wire.NotFound{}, nil
		}
		return wire.TransactionResponse{Tx: tx}, nil

	case wire.GetTransactionChain:
		txs, err := d.Store.GetTransactionChain(f.Address, f.After)
		if err != nil {
			return wire.Error{Reason: wire.ReasonNetworkIssue}, nil
		}
		return wire.TransactionList{Transactions: txs}, nil

	case wire.GetUnspentOutputs:
		outs, err := d.Store.GetUnspentOutputs(f.Address)
		if err != nil {
			return wire.Error{Reason: wire.ReasonNetworkIssue}, nil
		}
		return wire.UnspentOutputList{Outputs: toWireOutputs(outs)}, nil

	case wire.NewTransaction:
		return d.processNewTransaction(ctx, f.Tx, now)

	case wire.StartMining:
		d.Mining.StartMining(f.Tx, f.WelcomeKey, f.Keys)
		return wire.Ok{}, nil

	case wire.AddMiningContext:
		d.Mining.AddContext(f.Hash, f.Key, f.Keys, f.Views)
		return wire.Ok{}, nil

	case wire.CrossValidate:
		d.Mining.CrossValidate(f.Address, f.Stamp, f.V, f.W, f.ReplicationTree)
		return wire.Ok{}, nil

	case wire.CrossValidationDone:
		d.Mining.CrossValidationDone(f.Address, f.Stamp)
		return wire.Ok{}, nil

	case wire.ReplicateTransaction:
		if err := d.Store.Commit(f.Tx); err != nil {
			return wire.Error{Reason: wire.ReasonNetworkIssue}, nil
		}
		if f.AckStorage {
			d.Mining.AcknowledgeStorage(f.Tx.Address)
		}
		return wire.Ok{}, nil

	case wire.AcknowledgeStorage:
		d.Mining.AcknowledgeStorage(f.Address)
		return wire.Ok{}, nil

	case wire.NotifyEndOfNodeSync:
		d.Mining.NotifyEndOfNodeSync(f.Key, f.Timestamp)
		if err := d.Mesh.SetNodeGloballyAvailable(f.Key); err == nil {
			// availability change observed; no response payload carries it,
			// callers learn of it via GetP2PView / NodeAvailability.
		}
		return wire.Ok{}, nil

	case wire.GetLastTransaction:
		tx, ok := d.Store.GetLastTransaction(f.Address)
		if !ok {
			return wire.NotFound{}, nil
		}
		return wire.TransactionResponse{Tx: tx}, nil

	case wire.GetBalance:
		uco, tokens := d.Store.GetBalance(f.Address)
		return wire.Balance{UCO: uco, Tokens: tokens}, nil

	case wire.GetTransactionInputs:
		outs, err := d.Store.GetTransactionInputs(f.Address)
		if err != nil {
			return wire.Error{Reason: wire.ReasonNetworkIssue}, nil
		}
		return wire.TransactionInputList{Outputs: toWireOutputs(outs)}, nil

	case wire.GetTransactionChainLength:
		return wire.TransactionChainLength{Length: d.Store.GetTransactionChainLength(f.Address)}, nil

	case wire.GetP2PView:
		return wire.P2PView{Availability: d.Mesh.NodesAvailabilityAsBits(f.Keys)}, nil

	case wire.GetFirstPublicKey:
		pub, ok := d.Store.GetFirstPublicKey(f.Address)
		if !ok {
			return wire.NotFound{}, nil
		}
		return wire.FirstPublicKey{PublicKey: pub}, nil

	case wire.GetLastTransactionAddress:
		addr, ts, ok := d.Store.GetLastTransactionAddress(f.Address, f.Timestamp)
		if !ok {
			addr, ts = f.Address, f.Timestamp
		}
		return wire.LastTransactionAddress{Address: addr, Timestamp: ts}, nil

	case wire.NotifyLastTransactionAddress:
		if err := d.Store.RecordLastTransactionAddress(f.PreviousAddress, f.NewAddress, f.Timestamp); err != nil {
			return wire.Error{Reason: wire.ReasonNetworkIssue}, nil
		}
		return wire.Ok{}, nil

	case wire.GetTransactionSummary:
		typ, ok := d.Store.GetTransactionSummary(f.Address)
		if !ok {
			return wire.NotFound{}, nil
		}
		return wire.TransactionSummary{Address: f.Address, Type: typ}, nil

	case wire.NodeAvailability:
		if err := d.Mesh.SetNodeGloballyAvailable(f.Key); err != nil {
			return wire.Error{Reason: wire.ReasonNetworkIssue}, nil
		}
		return wire.Ok{}, nil

	case wire.Ping:
		return wire.Ok{}, nil

	default:
		return wire.Error{Reason: wire.ReasonInvalidTransaction}, nil
	}
}

// processNewTransaction is process(NewTransaction) (spec §4.4/§5): run the
// validator, and only on admission submit the transaction for mining and
// suspend awaiting transaction_accepted/transaction_rejected.
func (d Deps) processNewTransaction(ctx context.Context, tx *chain.Transaction, now time.Time) (wire.Frame, error) {
	v := validator.Validate(tx, now, d.validatorConfig(), d.validatorCollaborators())
	if !v.Admitted() {
		return wire.Error{Reason: wire.ReasonInvalidTransaction}, nil
	}

	awaitCtx, cancel := context.WithTimeout(ctx, d.miningTimeout())
	defer cancel()

	d.Mining.StartMining(tx, nil, nil)

	accepted, err := d.Tracker.Await(awaitCtx, tx.Address)
	if err != nil {
		return wire.Error{Reason: wire.ReasonNetworkIssue}, nil
	}
	if !accepted {
		return wire.Error{Reason: wire.ReasonInvalidTransaction}, nil
	}
	return wire.Ok{}, nil
}

func toWireOutputs(outs []UnspentOutput) []wire.UnspentOutput {
	out := make([]wire.UnspentOutput, len(outs))
	for i, o := range outs {
		out[i] = wire.UnspentOutput{From: o.From, Amount: o.Amount, Type: o.Type}
	}
	return out
}
