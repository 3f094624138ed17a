package wire

import (
	"net"

	"github.com/meshchain/node/chain"
)

func writeNodeRecord(w *writer, n chain.NodeRecord) {
	w.taggedKey(n.FirstPublicKey)
	w.taggedKey(n.LastPublicKey)

	var ipBytes [4]byte
	if ip4 := net.ParseIP(n.IP).To4(); ip4 != nil {
		copy(ipBytes[:], ip4)
	}
	w.bytes(ipBytes[:])

	w.u16(n.Port)
	w.u16(n.HTTPPort)
	if n.Transport == chain.TransportTCP {
		w.byte(0)
	} else {
		w.byte(0xff)
	}
	w.taggedHash(n.RewardAddress)
	w.bytes(patchBytes(n.NetworkPatch))
	w.taggedKey(n.OriginPublicKey)
	w.lenPrefixedBytes(16, n.Certificate)
	w.byte(boolByte(n.Available))
	w.byte(boolByte(n.Authorized))
	w.u32(n.AuthorizationDate)
	w.bytes(patchBytes(n.GeoPatch))
}

func readNodeRecord(r *reader) (chain.NodeRecord, error) {
	var n chain.NodeRecord
	var err error

	if n.FirstPublicKey, err = r.taggedKey(); err != nil {
		return n, err
	}
	if n.LastPublicKey, err = r.taggedKey(); err != nil {
		return n, err
	}
	ipBytes, err := r.take(4)
	if err != nil {
		return n, err
	}
	n.IP = net.IP(ipBytes).String()

	if v, err := r.u16(); err != nil {
		return n, err
	} else {
		n.Port = v
	}
	if v, err := r.u16(); err != nil {
		return n, err
	} else {
		n.HTTPPort = v
	}
	transportTag, err := r.byte()
	if err != nil {
		return n, err
	}
	if transportTag == 0 {
		n.Transport = chain.TransportTCP
	}
	if n.RewardAddress, err = r.taggedHash(); err != nil {
		return n, err
	}
	patch, err := r.take(3)
	if err != nil {
		return n, err
	}
	n.NetworkPatch = string(patch)
	if n.OriginPublicKey, err = r.taggedKey(); err != nil {
		return n, err
	}
	if n.Certificate, err = r.lenPrefixedBytes(16); err != nil {
		return n, err
	}
	avail, err := r.byte()
	if err != nil {
		return n, err
	}
	n.Available = avail != 0
	auth, err := r.byte()
	if err != nil {
		return n, err
	}
	n.Authorized = auth != 0
	if n.AuthorizationDate, err = r.u32(); err != nil {
		return n, err
	}
	geoPatch, err := r.take(3)
	if err != nil {
		return n, err
	}
	n.GeoPatch = string(geoPatch)
	return n, nil
}

func patchBytes(p string) []byte {
	b := make([]byte, 3)
	copy(b, p)
	return b
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
