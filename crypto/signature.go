package crypto

import (
	"crypto/ed25519"
	"errors"
)

// ErrUnsupportedSignatureAlgo is returned when a tagged key names an
// algorithm this node does not know how to verify signatures with.
var ErrUnsupportedSignatureAlgo = errors.New("crypto: unsupported signature algorithm")

// VerifySignature checks sig over message under pub, dispatching on pub's
// algorithm tag exactly as GetKeyCertificate/VerifyCertificate do: Ed25519
// signs the message directly, the ECDSA families sign SHA-256(message) and
// expect a fixed 64-byte [R || S] encoding. This is the primitive the
// validator uses to check previous_signature and origin_signature (§4.5
// universal checks 1-2).
func VerifySignature(pub TaggedKey, message, sig []byte) (bool, error) {
	payload := pub.Payload()
	switch KeyAlgo(pub.Tag()) {
	case KeyEd25519:
		if len(payload) != ed25519.PublicKeySize {
			return false, nil
		}
		return ed25519.Verify(ed25519.PublicKey(payload), message, sig), nil

	case KeySECP256K1:
		if len(sig) != 64 {
			return false, nil
		}
		ecdsaPub, err := DecompressPubkey(payload)
		if err != nil {
			return false, nil
		}
		h := SHA256(message)
		return ValidateSignature(FromECDSAPub(ecdsaPub), h, sig), nil

	case KeySECP256R1:
		if len(sig) != 64 {
			return false, nil
		}
		ecdsaPub, err := P256DecompressPubkey(payload)
		if err != nil {
			return false, nil
		}
		h := SHA256(message)
		return P256VerifyCompact(h, sig, ecdsaPub), nil

	default:
		return false, ErrUnsupportedSignatureAlgo
	}
}

// CacheKeyForSignature derives the SignatureCache key for a (pub, message,
// sig) triple, so repeated validations of the same transaction signature
// (e.g. re-validation after pool churn) skip the expensive verify step.
func CacheKeyForSignature(pub TaggedKey, message, sig []byte) SigCacheKey {
	sigType := SigTypeEd25519
	if KeyAlgo(pub.Tag()) == KeySECP256K1 || KeyAlgo(pub.Tag()) == KeySECP256R1 {
		sigType = SigTypeECDSA
	}
	msgHash := SHA3_256(pub, message)
	return MakeSigCacheKey(sigType, sig, msgHash)
}
