package chain

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/meshchain/node/crypto"
	"github.com/meshchain/node/rlp"
)

// Type enumerates the transaction types the validator and wire codec know
// about. The byte values are part of the canonical serialisation and are
// stable across the wire.
type Type uint8

const (
	TypeNode Type = iota
	TypeNodeSharedSecrets
	TypeOrigin
	TypeCodeApproval
	TypeTransfer
	TypeToken
	TypeMintRewards
	TypeNodeRewards
	TypeOracle
	TypeBeacon
	TypeHosting
	TypeKeychain
	TypeKeychainAccess
)

var typeNames = map[Type]string{
	TypeNode:              "node",
	TypeNodeSharedSecrets: "node_shared_secrets",
	TypeOrigin:            "origin",
	TypeCodeApproval:      "code_approval",
	TypeTransfer:          "transfer",
	TypeToken:             "token",
	TypeMintRewards:       "mint_rewards",
	TypeNodeRewards:       "node_rewards",
	TypeOracle:            "oracle",
	TypeBeacon:            "beacon",
	TypeHosting:           "hosting",
	TypeKeychain:          "keychain",
	TypeKeychainAccess:    "keychain_access",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ErrUnknownType is returned when a type byte does not name a known
// transaction type.
var ErrUnknownType = errors.New("chain: unknown transaction type")

// TypeByName resolves a transaction type name back to its byte value.
func TypeByName(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, ErrUnknownType
}

// Ownership associates an encrypted secret with the set of public keys
// authorized to decrypt it. `authorized_keys` maps the hex encoding of each
// tagged public key to the secret re-encrypted under that key.
type Ownership struct {
	Secret         []byte
	AuthorizedKeys map[string][]byte // hex(pubkey) -> encrypted key
}

// UCOTransfer is a single native-currency transfer line.
type UCOTransfer struct {
	To     crypto.TaggedHash
	Amount *uint256.Int // smallest sub-unit (10^-8)
}

// TokenTransfer is a single token transfer line.
type TokenTransfer struct {
	TokenAddress crypto.TaggedHash
	To           crypto.TaggedHash
	Amount       *uint256.Int
	TokenID      uint64
}

// Ledger carries the UCO and token movements of a transaction.
type Ledger struct {
	UCO    []UCOTransfer
	Tokens []TokenTransfer
}

// Data is the nested, signed payload of a transaction.
type Data struct {
	Content    []byte // opaque, <= CONTENT_MAX_SIZE
	Code       string // smart-contract source text
	Ownerships []Ownership
	Recipients []crypto.TaggedHash
	Ledger     Ledger
}

// Transaction is the typed transaction record (C2). It is immutable once
// constructed; mutating helpers return a modified copy instead of mutating
// in place.
type Transaction struct {
	Address           crypto.TaggedHash
	Type              Type
	PreviousPublicKey crypto.TaggedKey
	PreviousSignature []byte
	OriginSignature   []byte
	Data              Data
}

// PreviousAddress derives the address implied by the transaction's
// previous public key: derive_address(tx.previous_public_key).
func (tx *Transaction) PreviousAddress(hashAlgo crypto.HashAlgo) (crypto.TaggedHash, error) {
	return crypto.DeriveAddress(tx.PreviousPublicKey, hashAlgo)
}

// rlpData and rlpTransaction mirror Data/Transaction with exported fields
// RLP can marshal directly (map and *uint256.Int are not supported by the
// encoder, so ownerships and ledger amounts are flattened to parallel
// slices and byte strings).
type rlpOwnership struct {
	Secret    []byte
	KeyHexes  []string
	KeyValues [][]byte
}

type rlpUCOTransfer struct {
	To     []byte
	Amount []byte // big-endian bytes of the uint256 amount
}

type rlpTokenTransfer struct {
	TokenAddress []byte
	To           []byte
	Amount       []byte
	TokenID      uint64
}

type rlpData struct {
	Content    []byte
	Code       string
	Ownerships []rlpOwnership
	Recipients [][]byte
	UCO        []rlpUCOTransfer
	Tokens     []rlpTokenTransfer
}

type rlpTransaction struct {
	Address           []byte
	Type              uint8
	PreviousPublicKey []byte
	PreviousSignature []byte
	OriginSignature   []byte
	Data              rlpData
}

// Serialize produces the canonical byte sequence for tx. Two logically
// equal transactions always produce byte-equal output: ownership map
// entries are serialized in TaggedKey-hex sorted order so the RLP encoder
// (which has no notion of maps) sees a deterministic field order.
func (tx *Transaction) Serialize() ([]byte, error) {
	rtx := rlpTransaction{
		Address:           []byte(tx.Address),
		Type:              uint8(tx.Type),
		PreviousPublicKey: []byte(tx.PreviousPublicKey),
		PreviousSignature: tx.PreviousSignature,
		OriginSignature:   tx.OriginSignature,
		Data: rlpData{
			Content: tx.Data.Content,
			Code:    tx.Data.Code,
		},
	}

	for _, own := range tx.Data.Ownerships {
		keys := sortedKeys(own.AuthorizedKeys)
		ro := rlpOwnership{Secret: own.Secret}
		for _, k := range keys {
			ro.KeyHexes = append(ro.KeyHexes, k)
			ro.KeyValues = append(ro.KeyValues, own.AuthorizedKeys[k])
		}
		rtx.Data.Ownerships = append(rtx.Data.Ownerships, ro)
	}

	for _, r := range tx.Data.Recipients {
		rtx.Data.Recipients = append(rtx.Data.Recipients, []byte(r))
	}

	for _, u := range tx.Data.Ledger.UCO {
		amt := []byte{}
		if u.Amount != nil {
			amt = u.Amount.Bytes()
		}
		rtx.Data.UCO = append(rtx.Data.UCO, rlpUCOTransfer{To: []byte(u.To), Amount: amt})
	}
	for _, tk := range tx.Data.Ledger.Tokens {
		amt := []byte{}
		if tk.Amount != nil {
			amt = tk.Amount.Bytes()
		}
		rtx.Data.Tokens = append(rtx.Data.Tokens, rlpTokenTransfer{
			TokenAddress: []byte(tk.TokenAddress),
			To:           []byte(tk.To),
			Amount:       amt,
			TokenID:      tk.TokenID,
		})
	}

	return rlp.EncodeToBytes(&rtx)
}

// Deserialize decodes a canonical byte sequence produced by Serialize back
// into a Transaction.
func Deserialize(b []byte) (*Transaction, error) {
	var rtx rlpTransaction
	if err := rlp.DecodeBytes(b, &rtx); err != nil {
		return nil, fmt.Errorf("chain: deserialize transaction: %w", err)
	}

	tx := &Transaction{
		Address:           crypto.TaggedHash(rtx.Address),
		Type:              Type(rtx.Type),
		PreviousPublicKey: crypto.TaggedKey(rtx.PreviousPublicKey),
		PreviousSignature: rtx.PreviousSignature,
		OriginSignature:   rtx.OriginSignature,
		Data: Data{
			Content: rtx.Data.Content,
			Code:    rtx.Data.Code,
		},
	}

	for _, ro := range rtx.Data.Ownerships {
		own := Ownership{Secret: ro.Secret, AuthorizedKeys: make(map[string][]byte, len(ro.KeyHexes))}
		for i, k := range ro.KeyHexes {
			own.AuthorizedKeys[k] = ro.KeyValues[i]
		}
		tx.Data.Ownerships = append(tx.Data.Ownerships, own)
	}

	for _, r := range rtx.Data.Recipients {
		tx.Data.Recipients = append(tx.Data.Recipients, crypto.TaggedHash(r))
	}

	for _, u := range rtx.Data.UCO {
		tx.Data.Ledger.UCO = append(tx.Data.Ledger.UCO, UCOTransfer{
			To:     crypto.TaggedHash(u.To),
			Amount: new(uint256.Int).SetBytes(u.Amount),
		})
	}
	for _, tk := range rtx.Data.Tokens {
		tx.Data.Ledger.Tokens = append(tx.Data.Ledger.Tokens, TokenTransfer{
			TokenAddress: crypto.TaggedHash(tk.TokenAddress),
			To:           crypto.TaggedHash(tk.To),
			Amount:       new(uint256.Int).SetBytes(tk.Amount),
			TokenID:      tk.TokenID,
		})
	}

	return tx, nil
}

// SerializeData produces the canonical byte sequence of tx.Data alone --
// the payload previous_signature is computed over (spec.md §3: "
// previous_signature verifies data under previous_public_key").
func (tx *Transaction) SerializeData() ([]byte, error) {
	rd := rlpData{Content: tx.Data.Content, Code: tx.Data.Code}

	for _, own := range tx.Data.Ownerships {
		keys := sortedKeys(own.AuthorizedKeys)
		ro := rlpOwnership{Secret: own.Secret}
		for _, k := range keys {
			ro.KeyHexes = append(ro.KeyHexes, k)
			ro.KeyValues = append(ro.KeyValues, own.AuthorizedKeys[k])
		}
		rd.Ownerships = append(rd.Ownerships, ro)
	}

	for _, r := range tx.Data.Recipients {
		rd.Recipients = append(rd.Recipients, []byte(r))
	}

	for _, u := range tx.Data.Ledger.UCO {
		amt := []byte{}
		if u.Amount != nil {
			amt = u.Amount.Bytes()
		}
		rd.UCO = append(rd.UCO, rlpUCOTransfer{To: []byte(u.To), Amount: amt})
	}
	for _, tk := range tx.Data.Ledger.Tokens {
		amt := []byte{}
		if tk.Amount != nil {
			amt = tk.Amount.Bytes()
		}
		rd.Tokens = append(rd.Tokens, rlpTokenTransfer{
			TokenAddress: []byte(tk.TokenAddress),
			To:           []byte(tk.To),
			Amount:       amt,
			TokenID:      tk.TokenID,
		})
	}

	return rlp.EncodeToBytes(&rd)
}

// SerializeForOriginSignature produces the byte sequence origin_signature
// is computed over: the full canonical transaction with the origin
// signature itself blanked out.
func (tx *Transaction) SerializeForOriginSignature() ([]byte, error) {
	clone := *tx
	clone.OriginSignature = nil
	return clone.Serialize()
}

// sortedKeys returns the keys of m in ascending lexical order.
func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
