package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
)

// ErrUnsupportedCertAlgo is returned when a certificate names an origin
// key algorithm this node does not know how to sign or verify with.
var ErrUnsupportedCertAlgo = errors.New("crypto: unsupported certificate algorithm")

// GetKeyCertificate signs pub under the origin private key, producing the
// certificate bytes embedded in `node`/`origin` transaction content. The
// signing scheme is selected by originPub's algorithm tag: Ed25519 signs
// the raw key bytes directly, the ECDSA families sign SHA-256(pub) and
// encode the result as a fixed 64-byte [R || S].
func GetKeyCertificate(pub TaggedKey, originPriv interface{}, originPub TaggedKey) ([]byte, error) {
	switch KeyAlgo(originPub.Tag()) {
	case KeyEd25519:
		priv, ok := originPriv.(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("crypto: origin private key is not ed25519")
		}
		return ed25519.Sign(priv, pub), nil

	case KeySECP256K1:
		priv, ok := originPriv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("crypto: origin private key is not ECDSA")
		}
		h := SHA256(pub)
		sig, err := Sign(h, priv)
		if err != nil {
			return nil, err
		}
		return sig[:64], nil

	case KeySECP256R1:
		priv, ok := originPriv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("crypto: origin private key is not ECDSA")
		}
		h := SHA256(pub)
		return signP256Fixed(h, priv)

	default:
		return nil, ErrUnsupportedCertAlgo
	}
}

// VerifyCertificate checks that cert is a valid signature of pub under
// originPub, per the scheme named by originPub's algorithm tag.
func VerifyCertificate(pub TaggedKey, cert []byte, originPub TaggedKey) (bool, error) {
	payload := originPub.Payload()
	switch KeyAlgo(originPub.Tag()) {
	case KeyEd25519:
		if len(payload) != ed25519.PublicKeySize {
			return false, nil
		}
		return ed25519.Verify(ed25519.PublicKey(payload), pub, cert), nil

	case KeySECP256K1:
		if len(cert) != 64 {
			return false, nil
		}
		originECDSA, err := DecompressPubkey(payload)
		if err != nil {
			return false, nil
		}
		h := SHA256(pub)
		return ValidateSignature(FromECDSAPub(originECDSA), h, cert), nil

	case KeySECP256R1:
		if len(cert) != 64 {
			return false, nil
		}
		h := SHA256(pub)
		return verifyP256Fixed(h, cert, payload)

	default:
		return false, ErrUnsupportedCertAlgo
	}
}

// signP256Fixed signs hash on the P-256 curve and encodes the result as a
// fixed-width 64-byte [R || S], zero-padded on the left.
func signP256Fixed(hash []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	return P256Sign(hash, priv)
}

// verifyP256Fixed verifies a fixed-width 64-byte [R || S] P-256 signature
// against a compressed public key.
func verifyP256Fixed(hash, sig, compressedPub []byte) (bool, error) {
	pub, err := P256DecompressPubkey(compressedPub)
	if err != nil {
		return false, nil
	}
	return P256VerifyCompact(hash, sig, pub), nil
}
