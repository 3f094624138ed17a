package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/sha3"
)

// SHA256 computes the SHA-256 digest of the concatenation of data.
func SHA256(data ...[]byte) []byte {
	h := sha256.New()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// SHA512 computes the SHA-512 digest of the concatenation of data.
func SHA512(data ...[]byte) []byte {
	h := sha512.New()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// SHA3_256 computes the SHA3-256 digest of the concatenation of data.
func SHA3_256(data ...[]byte) []byte {
	h := sha3.New256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// SHA3_512 computes the SHA3-512 digest of the concatenation of data.
func SHA3_512(data ...[]byte) []byte {
	h := sha3.New512()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256 calculates the legacy Keccak-256 hash of data. Retained for
// the signature verification cache, which keys entries independently of
// the tagged-hash algorithm family used on the wire.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
