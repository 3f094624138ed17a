// Package validator implements the pending-transaction admission gate
// (C5): the universal checks every transaction type must pass plus the
// per-type rules in spec.md §4.5, evaluated against a Transaction and a
// handful of read-mostly collaborators (chain storage, node membership,
// pool membership, schedulers).
package validator

import (
	"fmt"
	"time"

	"github.com/meshchain/node/chain"
	"github.com/meshchain/node/crypto"
)

// Verdict is the outcome of Validate. A zero Verdict (Reason == "") means
// the transaction is admitted. Rejections carry a short, stable English
// message: the wire contract (spec.md §7) requires exact string matching
// by clients and tests, so Reason is a plain string rather than an error
// sentinel.
type Verdict struct {
	Reason string
}

// Ok is the admitted verdict.
func Ok() Verdict { return Verdict{} }

// Reject builds a rejection verdict carrying reason.
func Reject(reason string) Verdict { return Verdict{Reason: reason} }

// Admitted reports whether v represents acceptance.
func (v Verdict) Admitted() bool { return v.Reason == "" }

// DefaultContentMaxSize mirrors node.DefaultContentMaxSize (3.5 MiB, spec
// §3); Config.ContentMaxSize should normally be populated from the live
// Registers generation, this is only the fallback when a caller leaves it
// unset.
const DefaultContentMaxSize = 3*1024*1024 + 512*1024

// Config is the validator's view of the process-wide registers (spec §6.3,
// §9 "Process-wide registers"). It is a plain value type rather than an
// imported node.Registers so this package stays independent of event-bus
// and bootstrap machinery; dispatch converts a *node.Registers generation
// into a Config on every call.
type Config struct {
	NodeSharedSecretsGenesisAddress crypto.TaggedHash
	OriginGenesisAddresses          []crypto.TaggedHash
	RewardGenesisAddress            crypto.TaggedHash
	AllowedNodeKeyOrigins           []string
	ContentMaxSize                  int64
}

// IsOriginGenesisAddress reports whether addr is one of the configured
// origin-chain genesis addresses.
func (c Config) IsOriginGenesisAddress(addr crypto.TaggedHash) bool {
	for _, a := range c.OriginGenesisAddresses {
		if a.Equal(addr) {
			return true
		}
	}
	return false
}

func (c Config) contentMaxSize() int64 {
	if c.ContentMaxSize > 0 {
		return c.ContentMaxSize
	}
	return DefaultContentMaxSize
}

// Collaborators bundles the external lookups the validator is allowed to
// perform (spec §6.3). SigCache is optional; when nil, signatures are
// verified without caching.
type Collaborators struct {
	ChainStore ChainStore
	Pools      PoolsMemTable
	Schedulers Schedulers
	Nodes      NodeLookup
	SigCache   *crypto.SignatureCache
}

// Validate is process(tx, now) -> Ok | Err(reason) (spec §4.5 entry
// point). now defaults to the current UTC instant in production; tests
// inject it directly.
func Validate(tx *chain.Transaction, now time.Time, cfg Config, collab Collaborators) Verdict {
	if v := checkPreviousSignature(tx, collab.SigCache); !v.Admitted() {
		return v
	}
	if v := checkOriginSignature(tx, collab); !v.Admitted() {
		return v
	}
	if v := checkContentSize(tx, cfg); !v.Admitted() {
		return v
	}
	if v := checkOwnerships(tx); !v.Admitted() {
		return v
	}
	if v := checkKeyOrigin(tx, cfg, collab); !v.Admitted() {
		return v
	}
	return checkPerType(tx, now, cfg, collab)
}

func checkPreviousSignature(tx *chain.Transaction, cache *crypto.SignatureCache) Verdict {
	data, err := tx.SerializeData()
	if err != nil {
		return Reject("Invalid previous signature")
	}
	ok, err := verifyCached(cache, tx.PreviousPublicKey, data, tx.PreviousSignature)
	if err != nil || !ok {
		return Reject("Invalid previous signature")
	}
	return Ok()
}

func checkOriginSignature(tx *chain.Transaction, collab Collaborators) Verdict {
	body, err := tx.SerializeForOriginSignature()
	if err != nil {
		return Reject("Invalid origin signature")
	}
	if collab.ChainStore == nil {
		return Reject("Invalid origin signature")
	}
	for _, originKey := range collab.ChainStore.KnownOriginPublicKeys() {
		ok, err := verifyCached(collab.SigCache, originKey, body, tx.OriginSignature)
		if err == nil && ok {
			return Ok()
		}
	}
	return Reject("Invalid origin signature")
}

func checkContentSize(tx *chain.Transaction, cfg Config) Verdict {
	if int64(len(tx.Data.Content)) > cfg.contentMaxSize() {
		// "greaterthan" (no space) is preserved verbatim: spec.md §8
		// scenario 3 marks the missing space [sic] as part of the
		// external contract, not a typo to fix.
		return Reject(fmt.Sprintf("Invalid %s transaction with content size greaterthan content_max_size", tx.Type))
	}
	return Ok()
}

func checkOwnerships(tx *chain.Transaction) Verdict {
	for _, own := range tx.Data.Ownerships {
		if len(own.Secret) == 0 || len(own.AuthorizedKeys) == 0 {
			return Reject(fmt.Sprintf("Invalid %s transaction with invalid ownership", tx.Type))
		}
	}
	return Ok()
}

func checkKeyOrigin(tx *chain.Transaction, cfg Config, collab Collaborators) Verdict {
	if len(cfg.AllowedNodeKeyOrigins) == 0 {
		return Ok()
	}
	if collab.ChainStore == nil {
		return Reject(fmt.Sprintf("Invalid %s transaction with invalid key origin", tx.Type))
	}
	name, ok := collab.ChainStore.KeyOriginName(tx.PreviousPublicKey)
	if !ok || !containsString(cfg.AllowedNodeKeyOrigins, name) {
		return Reject(fmt.Sprintf("Invalid %s transaction with invalid key origin", tx.Type))
	}
	return Ok()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func verifyCached(cache *crypto.SignatureCache, pub crypto.TaggedKey, message, sig []byte) (bool, error) {
	if cache == nil {
		return crypto.VerifySignature(pub, message, sig)
	}
	key := crypto.CacheKeyForSignature(pub, message, sig)
	if entry, ok := cache.Get(key); ok {
		return entry.Valid, nil
	}
	valid, err := crypto.VerifySignature(pub, message, sig)
	if err != nil {
		return false, err
	}
	sigType := crypto.SigTypeEd25519
	if crypto.KeyAlgo(pub.Tag()) == crypto.KeySECP256K1 || crypto.KeyAlgo(pub.Tag()) == crypto.KeySECP256R1 {
		sigType = crypto.SigTypeECDSA
	}
	cache.Add(key, crypto.SigCacheEntry{Valid: valid, SigType: sigType})
	return valid, nil
}
