// Package chain implements the typed transaction record (C2): field
// layout, canonical serialisation, and address derivation. It depends on
// crypto for tagged hash/key handling but knows nothing about the wire
// framing (wire) or admission rules (validator) built on top of it.
package chain

import (
	"github.com/meshchain/node/crypto"
)

// TransportProtocol enumerates the transport kinds a node record may
// advertise. Only tcp is defined by the protocol today.
type TransportProtocol string

const TransportTCP TransportProtocol = "tcp"

// NodeRecord describes a node as carried in `node` transaction content and
// mirrored in the in-memory membership table (p2p.NodeRegistry).
type NodeRecord struct {
	FirstPublicKey     crypto.TaggedKey
	LastPublicKey      crypto.TaggedKey
	IP                 string
	Port               uint16
	HTTPPort           uint16
	Transport          TransportProtocol
	RewardAddress      crypto.TaggedHash
	NetworkPatch       string // 3 hex chars
	OriginPublicKey    crypto.TaggedKey
	Certificate        []byte
	Available          bool
	Authorized         bool
	AuthorizationDate  uint32 // unix seconds, 0 if never authorized
	GeoPatch           string
}
