package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
)

// ErrUnsupportedNonceAlgo is returned by EncryptStorageNonce when the
// requesting node's key algorithm has no defined ECIES scheme here.
var ErrUnsupportedNonceAlgo = errors.New("crypto: storage nonce encryption unsupported for this key algorithm")

// EncryptStorageNonce encrypts this node's local storage nonce for the
// requesting node identified by pub, answering a GetStorageNonce request.
// Only the ECDSA key families (secp256k1, secp256r1) support ECIES here;
// Ed25519 keys are rejected since encryption requires a Diffie-Hellman
// friendly curve, not a signature-only one.
func EncryptStorageNonce(pub TaggedKey, nonce []byte) ([]byte, error) {
	payload := pub.Payload()
	switch KeyAlgo(pub.Tag()) {
	case KeySECP256K1:
		ecdsaPub, err := DecompressPubkey(payload)
		if err != nil {
			return nil, err
		}
		return ECIESEncrypt(ecdsaPub, nonce)

	case KeySECP256R1:
		ecdsaPub, err := P256DecompressPubkey(payload)
		if err != nil {
			return nil, err
		}
		return eciesEncryptP256(ecdsaPub, nonce)

	default:
		return nil, ErrUnsupportedNonceAlgo
	}
}

// eciesEncryptP256 performs ECIES using P-256 ECDH instead of secp256k1.
// The KDF, AES-CTR, and HMAC steps are identical to ECIESEncrypt; only the
// curve used for the ephemeral key and key agreement differs.
func eciesEncryptP256(pub *ecdsa.PublicKey, plaintext []byte) ([]byte, error) {
	ephKey, err := P256GenerateKey()
	if err != nil {
		return nil, err
	}
	sx, _ := pub.Curve.ScalarMult(pub.X, pub.Y, ephKey.D.Bytes())
	shared := make([]byte, 32)
	sxBytes := sx.Bytes()
	copy(shared[32-len(sxBytes):], sxBytes)

	encKey, macKey := eciesKDF(shared)

	iv := make([]byte, eciesIVLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	ciphertext, err := aesCTR(encKey, iv, plaintext)
	if err != nil {
		return nil, err
	}
	mac := computeHMAC(macKey, iv, ciphertext)

	ephPub, err := P256MarshalUncompressed(&ephKey.PublicKey)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(ephPub)+eciesIVLen+len(ciphertext)+eciesMACLen)
	out = append(out, ephPub...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	out = append(out, mac...)
	return out, nil
}
