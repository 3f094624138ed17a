package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"math/big"
)

// secp256k1N is the order of the secp256k1 curve.
var secp256k1N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// secp256k1halfN is half the order, used for the low-S canonicalisation check.
var secp256k1halfN = new(big.Int).Div(secp256k1N, big.NewInt(2))

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(S256(), rand.Reader)
}

// Sign calculates an ECDSA signature over a 32-byte hash, encoded as
// 65 bytes [R || S || V] with V the recovery id (0 or 1).
func Sign(hash []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.New("hash must be 32 bytes")
	}
	r, s, err := ecdsa.Sign(rand.Reader, prv, hash)
	if err != nil {
		return nil, err
	}
	if s.Cmp(secp256k1halfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
	}

	sig := make([]byte, 65)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)

	v, err := recoveryID(hash, r, s, prv)
	if err != nil {
		return nil, err
	}
	sig[64] = v
	return sig, nil
}

// recoveryID finds the recovery id by trying both candidates and
// checking which one recovers to the signer's own public key.
func recoveryID(hash []byte, r, s *big.Int, prv *ecdsa.PrivateKey) (byte, error) {
	for v := byte(0); v < 2; v++ {
		qx, qy, err := recoverPublicKey(hash, r, s, v)
		if err != nil {
			continue
		}
		if qx.Cmp(prv.X) == 0 && qy.Cmp(prv.Y) == 0 {
			return v, nil
		}
	}
	return 0, errInvalidSignature
}

// SigToPub recovers the public key from a 32-byte hash and a 65-byte
// [R || S || V] signature.
func SigToPub(hash, sig []byte) (*ecdsa.PublicKey, error) {
	if len(sig) != 65 {
		return nil, errors.New("signature must be 65 bytes [R || S || V]")
	}
	if len(hash) != 32 {
		return nil, errors.New("hash must be 32 bytes")
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	v := sig[64]
	if v > 1 {
		return nil, errInvalidRecoveryID
	}
	qx, qy, err := recoverPublicKey(hash, r, s, v)
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{Curve: S256(), X: qx, Y: qy}, nil
}

// Ecrecover recovers the uncompressed public key from hash and signature.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	pub, err := SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return FromECDSAPub(pub), nil
}

// ValidateSignature verifies that the given 64-byte signature (no V) is
// valid for the provided 65-byte uncompressed public key and 32-byte hash.
func ValidateSignature(pubkey, hash, sig []byte) bool {
	if len(sig) != 64 {
		return false
	}
	if len(hash) != 32 {
		return false
	}
	if len(pubkey) != 65 || pubkey[0] != 0x04 {
		return false
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	x := new(big.Int).SetBytes(pubkey[1:33])
	y := new(big.Int).SetBytes(pubkey[33:65])
	pub := &ecdsa.PublicKey{Curve: S256(), X: x, Y: y}
	return ecdsa.Verify(pub, hash, r, s)
}

// ValidateSignatureValues checks r, s, v for validity; s must lie in the
// lower half of the curve order (canonical, low-S form).
func ValidateSignatureValues(v byte, r, s *big.Int) bool {
	if r == nil || s == nil {
		return false
	}
	if v > 1 {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	return s.Cmp(secp256k1halfN) <= 0
}

// CompressPubkey compresses a 65-byte uncompressed public key to 33 bytes.
func CompressPubkey(pubkey *ecdsa.PublicKey) []byte {
	if pubkey == nil || pubkey.X == nil || pubkey.Y == nil {
		return nil
	}
	return marshalCompressed(pubkey.X, pubkey.Y)
}

// DecompressPubkey decompresses a 33-byte compressed public key.
func DecompressPubkey(pubkey []byte) (*ecdsa.PublicKey, error) {
	if len(pubkey) != 33 {
		return nil, errors.New("invalid compressed public key length")
	}
	curve := S256().(*secp256k1Curve)
	x, y := unmarshalCompressed(curve, pubkey)
	if x == nil {
		return nil, errors.New("invalid compressed public key")
	}
	return &ecdsa.PublicKey{Curve: S256(), X: x, Y: y}, nil
}

// FromECDSAPub marshals a public key to 65-byte uncompressed format
// [0x04 || X(32) || Y(32)].
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	out := make([]byte, 65)
	out[0] = 0x04
	xb := pub.X.Bytes()
	yb := pub.Y.Bytes()
	copy(out[1+32-len(xb):33], xb)
	copy(out[33+32-len(yb):65], yb)
	return out
}

// marshalCompressed encodes (x, y) as 33 bytes: 0x02/0x03 prefix by y parity
// followed by the 32-byte x coordinate.
func marshalCompressed(x, y *big.Int) []byte {
	out := make([]byte, 33)
	if y.Bit(0) == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	xb := x.Bytes()
	copy(out[1+32-len(xb):33], xb)
	return out
}

// unmarshalCompressed decodes a 33-byte compressed point, recomputing y
// from the curve equation.
func unmarshalCompressed(curve *secp256k1Curve, data []byte) (*big.Int, *big.Int) {
	if len(data) != 33 || (data[0] != 0x02 && data[0] != 0x03) {
		return nil, nil
	}
	x := new(big.Int).SetBytes(data[1:])
	y := computeY(x, curve.p)
	if y == nil {
		return nil, nil
	}
	wantOdd := data[0] == 0x03
	if (y.Bit(0) == 1) != wantOdd {
		y = new(big.Int).Sub(curve.p, y)
	}
	if !curve.IsOnCurve(x, y) {
		return nil, nil
	}
	return x, y
}
