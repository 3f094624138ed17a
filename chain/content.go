package chain

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"

	"github.com/meshchain/node/crypto"
)

// ErrInvalidContent is returned when a transaction's opaque Content bytes
// do not parse as the structure its Type requires.
var ErrInvalidContent = errors.New("chain: malformed transaction content")

func readTaggedHash(b []byte) (crypto.TaggedHash, []byte, error) {
	if len(b) < 1 {
		return nil, nil, ErrInvalidContent
	}
	n, err := crypto.HashSize(b[0])
	if err != nil {
		return nil, nil, err
	}
	if len(b) < 1+n {
		return nil, nil, ErrInvalidContent
	}
	return crypto.TaggedHash(b[:1+n]), b[1+n:], nil
}

func readTaggedKey(b []byte) (crypto.TaggedKey, []byte, error) {
	if len(b) < 1 {
		return nil, nil, ErrInvalidContent
	}
	n, err := crypto.KeySize(b[0])
	if err != nil {
		return nil, nil, err
	}
	if len(b) < 1+n {
		return nil, nil, ErrInvalidContent
	}
	return crypto.TaggedKey(b[:1+n]), b[1+n:], nil
}

// NodeContent is the parsed form of a `node` transaction's content field
// (spec.md §4.5 per-type rule for `node`).
type NodeContent struct {
	IP              string
	Port            uint16
	HTTPPort        uint16
	Transport       TransportProtocol
	RewardAddress   crypto.TaggedHash
	OriginPublicKey crypto.TaggedKey
	Certificate     []byte
}

// ParseNodeContent decodes the fixed ipv4‖port‖http_port‖transport layout
// followed by a self-delimiting reward address and origin public key and
// a length-prefixed certificate.
func ParseNodeContent(b []byte) (NodeContent, error) {
	var nc NodeContent
	if len(b) < 4+2+2+1 {
		return nc, ErrInvalidContent
	}
	nc.IP = net.IP(b[0:4]).String()
	nc.Port = binary.BigEndian.Uint16(b[4:6])
	nc.HTTPPort = binary.BigEndian.Uint16(b[6:8])
	switch b[8] {
	case 0:
		nc.Transport = TransportTCP
	default:
		return nc, ErrInvalidContent
	}
	rest := b[9:]

	addr, rest, err := readTaggedHash(rest)
	if err != nil {
		return nc, err
	}
	nc.RewardAddress = addr

	pub, rest, err := readTaggedKey(rest)
	if err != nil {
		return nc, err
	}
	nc.OriginPublicKey = pub

	if len(rest) < 2 {
		return nc, ErrInvalidContent
	}
	certSize := binary.BigEndian.Uint16(rest[0:2])
	rest = rest[2:]
	if len(rest) < int(certSize) {
		return nc, ErrInvalidContent
	}
	nc.Certificate = rest[:certSize]
	return nc, nil
}

// OriginContent is the parsed form of an `origin` transaction's content:
// pubkey || cert_size:u16 || cert.
type OriginContent struct {
	PublicKey   crypto.TaggedKey
	Certificate []byte
}

func ParseOriginContent(b []byte) (OriginContent, error) {
	var oc OriginContent
	pub, rest, err := readTaggedKey(b)
	if err != nil {
		return oc, err
	}
	oc.PublicKey = pub
	if len(rest) < 2 {
		return oc, ErrInvalidContent
	}
	certSize := binary.BigEndian.Uint16(rest[0:2])
	rest = rest[2:]
	if len(rest) != int(certSize) {
		return oc, ErrInvalidContent
	}
	oc.Certificate = rest
	return oc, nil
}

// NodeSharedSecretsContent is the parsed form of a `node_shared_secrets`
// transaction's content: two concatenated tagged hashes (daily nonce seed,
// network seed).
type NodeSharedSecretsContent struct {
	DailyNonceSeed crypto.TaggedHash
	NetworkSeed    crypto.TaggedHash
}

func ParseNodeSharedSecretsContent(b []byte) (NodeSharedSecretsContent, error) {
	var nc NodeSharedSecretsContent
	nonce, rest, err := readTaggedHash(b)
	if err != nil {
		return nc, err
	}
	seed, rest, err := readTaggedHash(rest)
	if err != nil {
		return nc, err
	}
	if len(rest) != 0 {
		return nc, ErrInvalidContent
	}
	nc.DailyNonceSeed = nonce
	nc.NetworkSeed = seed
	return nc, nil
}

// MintRewardsContent is the parsed JSON form of a `mint_rewards`
// transaction's content.
type MintRewardsContent struct {
	Supply uint64 `json:"supply"`
}

func ParseMintRewardsContent(b []byte) (MintRewardsContent, error) {
	var mc MintRewardsContent
	if err := json.Unmarshal(b, &mc); err != nil {
		return mc, ErrInvalidContent
	}
	return mc, nil
}

// TokenContent is the parsed JSON form of a `token` transaction's content.
type TokenContent struct {
	Supply     uint64           `json:"supply"`
	Name       string           `json:"name"`
	Type       string           `json:"type"` // "fungible" | "non-fungible"
	Symbol     string           `json:"symbol"`
	Properties map[string]any   `json:"properties,omitempty"`
	Collection []map[string]any `json:"collection,omitempty"`
}

func ParseTokenContent(b []byte) (TokenContent, error) {
	var tc TokenContent
	if err := json.Unmarshal(b, &tc); err != nil {
		return tc, ErrInvalidContent
	}
	return tc, nil
}
