package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKeyPair deterministically derives an Ed25519 key pair from a seed
// and an integer index, following an HD-style derivation: the index is
// mixed into the HKDF info parameter so distinct indices over the same
// seed yield independent, reproducible key pairs.
func DeriveKeyPair(seed []byte, index uint32) (pub TaggedKey, priv ed25519.PrivateKey, err error) {
	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], index)

	kdf := hkdf.New(sha256.New, seed, nil, idxBuf[:])
	material := make([]byte, ed25519.SeedSize)
	if _, err = io.ReadFull(kdf, material); err != nil {
		return nil, nil, err
	}

	priv = ed25519.NewKeyFromSeed(material)
	pubBytes := priv.Public().(ed25519.PublicKey)

	pub = make(TaggedKey, 1+len(pubBytes))
	pub[0] = byte(KeyEd25519)
	copy(pub[1:], pubBytes)
	return pub, priv, nil
}
