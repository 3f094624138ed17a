package validator

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/meshchain/node/chain"
	"github.com/meshchain/node/crypto"
)

// checkPerType applies the per-transaction-type rule from spec.md §4.5's
// table. Types with no special rule (transfer, hosting, keychain,
// keychain_access, beacon) pass once the universal checks have.
func checkPerType(tx *chain.Transaction, now time.Time, cfg Config, collab Collaborators) Verdict {
	switch tx.Type {
	case chain.TypeNode:
		return checkNode(tx)
	case chain.TypeNodeSharedSecrets:
		return checkNodeSharedSecrets(tx, cfg, collab)
	case chain.TypeOrigin:
		return checkOrigin(tx, cfg)
	case chain.TypeCodeApproval:
		return checkCodeApproval(tx, collab)
	case chain.TypeMintRewards:
		return checkMintRewards(tx, now, cfg, collab)
	case chain.TypeNodeRewards:
		return checkNodeRewards(tx, now, collab)
	case chain.TypeOracle:
		return checkOracle(tx, now, collab)
	case chain.TypeToken:
		return checkToken(tx)
	default:
		return Ok()
	}
}

func previousAddress(tx *chain.Transaction) (crypto.TaggedHash, error) {
	return tx.PreviousAddress(crypto.HashAlgo(tx.Address.Tag()))
}

func checkNode(tx *chain.Transaction) Verdict {
	nc, err := chain.ParseNodeContent(tx.Data.Content)
	if err != nil {
		return Reject("Invalid node transaction with invalid content")
	}
	valid, err := crypto.VerifyCertificate(tx.PreviousPublicKey, nc.Certificate, nc.OriginPublicKey)
	if err != nil || !valid {
		return Reject("Invalid node transaction with invalid certificate")
	}
	return Ok()
}

func checkNodeSharedSecrets(tx *chain.Transaction, cfg Config, collab Collaborators) Verdict {
	prevAddr, err := previousAddress(tx)
	if err != nil || !prevAddr.Equal(cfg.NodeSharedSecretsGenesisAddress) {
		return Reject("Invalid node shared secrets transaction with invalid previous address")
	}
	if _, err := chain.ParseNodeSharedSecretsContent(tx.Data.Content); err != nil {
		return Reject("Invalid node shared secrets transaction with invalid content")
	}
	for _, own := range tx.Data.Ownerships {
		for hexKey := range own.AuthorizedKeys {
			raw, err := hex.DecodeString(hexKey)
			if err != nil {
				return Reject("Invalid node shared secrets transaction with unknown authorized key")
			}
			if collab.Nodes == nil {
				return Reject("Invalid node shared secrets transaction with unknown authorized key")
			}
			if _, err := collab.Nodes.GetNodeInfo(crypto.TaggedKey(raw)); err != nil {
				return Reject("Invalid node shared secrets transaction with unknown authorized key")
			}
		}
	}
	return Ok()
}

// originCondition is the exact inherit clause an `origin` transaction's
// code must declare (spec.md §4.5).
const originCondition = "condition inherit: [type: origin, content: true]"

func checkOrigin(tx *chain.Transaction, cfg Config) Verdict {
	prevAddr, err := previousAddress(tx)
	if err != nil || !cfg.IsOriginGenesisAddress(prevAddr) {
		return Reject("Invalid origin transaction with invalid previous address")
	}
	oc, err := chain.ParseOriginContent(tx.Data.Content)
	if err != nil {
		return Reject("Invalid origin transaction with invalid content")
	}
	valid, err := crypto.VerifyCertificate(oc.PublicKey, oc.Certificate, tx.PreviousPublicKey)
	if err != nil || !valid {
		return Reject("Invalid origin transaction with invalid certificate")
	}
	if !strings.Contains(tx.Data.Code, originCondition) {
		return Reject("Invalid origin transaction with invalid code")
	}
	return Ok()
}

func checkCodeApproval(tx *chain.Transaction, collab Collaborators) Verdict {
	if len(tx.Data.Recipients) != 1 {
		return Reject("Invalid code approval transaction with invalid recipient")
	}
	if collab.ChainStore == nil {
		return Reject("Invalid code approval transaction with unknown proposal")
	}
	proposal := tx.Data.Recipients[0]
	if !collab.ChainStore.TransactionExists(proposal) {
		return Reject("Invalid code approval transaction with unknown proposal")
	}
	if collab.Pools == nil {
		return Reject("Invalid code approval transaction with unauthorized signer")
	}
	members := collab.Pools.Members("technical_council")
	if _, ok := members[tx.PreviousPublicKey.String()]; !ok {
		return Reject("Invalid code approval transaction with unauthorized signer")
	}
	if collab.ChainStore.HasSigned(proposal, tx.PreviousPublicKey) {
		return Reject("Invalid code approval transaction with duplicate signature")
	}
	return Ok()
}

func checkMintRewards(tx *chain.Transaction, now time.Time, cfg Config, collab Collaborators) Verdict {
	prevAddr, err := previousAddress(tx)
	if err != nil || !prevAddr.Equal(cfg.RewardGenesisAddress) {
		return Reject("Invalid mint rewards transaction with invalid previous address")
	}
	mc, err := chain.ParseMintRewardsContent(tx.Data.Content)
	if err != nil {
		return Reject("Invalid mint rewards transaction with invalid content")
	}
	if collab.ChainStore == nil {
		return Reject("The supply do not match burned fees from last summary")
	}
	if mc.Supply != collab.ChainStore.LatestBurnedFees() {
		return Reject("The supply do not match burned fees from last summary")
	}
	if v := checkSchedulerWindow(tx, now, chain.TypeMintRewards, collab,
		"There is already a mint rewards transaction since last schedule"); !v.Admitted() {
		return v
	}
	return Ok()
}

func checkNodeRewards(tx *chain.Transaction, now time.Time, collab Collaborators) Verdict {
	return checkSchedulerWindow(tx, now, chain.TypeNodeRewards, collab, "Invalid node rewards trigger time")
}

func checkOracle(tx *chain.Transaction, now time.Time, collab Collaborators) Verdict {
	return checkSchedulerWindow(tx, now, chain.TypeOracle, collab, "Invalid oracle trigger time")
}

// checkSchedulerWindow implements spec.md §4.5's generic scheduler-window
// rule: compute the last instant at or before now the type's cron fires,
// then reject if a transaction of that type already landed at or after
// that instant under a different address.
func checkSchedulerWindow(tx *chain.Transaction, now time.Time, txType chain.Type, collab Collaborators, rejectMsg string) Verdict {
	if collab.Schedulers == nil || collab.ChainStore == nil {
		return Ok()
	}
	lastExpected := collab.Schedulers.LastTriggerAt(txType, now)
	addr, ts, ok := collab.ChainStore.LastTransactionOfType(txType)
	if ok && !ts.Before(lastExpected) && !addr.Equal(tx.Address) {
		return Reject(rejectMsg)
	}
	return Ok()
}

func checkToken(tx *chain.Transaction) Verdict {
	tc, err := chain.ParseTokenContent(tx.Data.Content)
	if err != nil {
		return Reject("Invalid token transaction with invalid content")
	}
	if tc.Type != "fungible" && tc.Type != "non-fungible" {
		return Reject("Invalid token transaction with invalid content")
	}
	if tc.Type == "non-fungible" {
		if tc.Supply%100000000 != 0 {
			return Reject("Invalid token transaction with invalid supply")
		}
		if tc.Collection != nil && uint64(len(tc.Collection)) != tc.Supply/100000000 {
			return Reject("Invalid token transaction with invalid collection")
		}
	}
	return Ok()
}
