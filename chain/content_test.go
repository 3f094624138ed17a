package chain

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/meshchain/node/crypto"
)

func sampleTaggedHash(fill byte) []byte {
	return append([]byte{byte(crypto.HashSHA256)}, bytes.Repeat([]byte{fill}, 32)...)
}

func sampleTaggedKey(fill byte) []byte {
	return append([]byte{byte(crypto.KeyEd25519)}, bytes.Repeat([]byte{fill}, 32)...)
}

func buildNodeContent(rewardAddr, originPub, cert []byte) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, 192, 168, 1, 1)
	var port, httpPort [2]byte
	binary.BigEndian.PutUint16(port[:], 3000)
	binary.BigEndian.PutUint16(httpPort[:], 4000)
	buf = append(buf, port[:]...)
	buf = append(buf, httpPort[:]...)
	buf = append(buf, 0)
	buf = append(buf, rewardAddr...)
	buf = append(buf, originPub...)
	var certSize [2]byte
	binary.BigEndian.PutUint16(certSize[:], uint16(len(cert)))
	buf = append(buf, certSize[:]...)
	buf = append(buf, cert...)
	return buf
}

func TestParseNodeContent(t *testing.T) {
	rewardAddr := sampleTaggedHash(0x22)
	originPub := sampleTaggedKey(0x33)
	cert := []byte("fake-certificate-bytes")

	nc, err := ParseNodeContent(buildNodeContent(rewardAddr, originPub, cert))
	if err != nil {
		t.Fatalf("ParseNodeContent: %v", err)
	}
	if nc.IP != "192.168.1.1" {
		t.Errorf("IP = %q, want 192.168.1.1", nc.IP)
	}
	if nc.Port != 3000 || nc.HTTPPort != 4000 {
		t.Errorf("ports = %d/%d, want 3000/4000", nc.Port, nc.HTTPPort)
	}
	if nc.Transport != TransportTCP {
		t.Errorf("transport = %q, want tcp", nc.Transport)
	}
	if !crypto.TaggedHash(rewardAddr).Equal(nc.RewardAddress) {
		t.Errorf("reward address mismatch")
	}
	if !crypto.TaggedKey(originPub).Equal(nc.OriginPublicKey) {
		t.Errorf("origin public key mismatch")
	}
	if !bytes.Equal(nc.Certificate, cert) {
		t.Errorf("certificate mismatch")
	}
}

func TestParseNodeContentRejectsUnknownTransport(t *testing.T) {
	rewardAddr := sampleTaggedHash(0x22)
	originPub := sampleTaggedKey(0x33)
	buf := buildNodeContent(rewardAddr, originPub, nil)
	buf[8] = 1 // only tcp (0) is defined

	if _, err := ParseNodeContent(buf); err != ErrInvalidContent {
		t.Fatalf("err = %v, want ErrInvalidContent", err)
	}
}

func TestParseNodeContentRejectsTruncated(t *testing.T) {
	if _, err := ParseNodeContent([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error on truncated content")
	}
}

func TestParseOriginContent(t *testing.T) {
	pub := sampleTaggedKey(0x44)
	cert := []byte("origin-cert")

	buf := append([]byte{}, pub...)
	var certSize [2]byte
	binary.BigEndian.PutUint16(certSize[:], uint16(len(cert)))
	buf = append(buf, certSize[:]...)
	buf = append(buf, cert...)

	oc, err := ParseOriginContent(buf)
	if err != nil {
		t.Fatalf("ParseOriginContent: %v", err)
	}
	if !crypto.TaggedKey(pub).Equal(oc.PublicKey) {
		t.Errorf("public key mismatch")
	}
	if !bytes.Equal(oc.Certificate, cert) {
		t.Errorf("certificate mismatch")
	}
}

func TestParseOriginContentRejectsTrailingBytes(t *testing.T) {
	pub := sampleTaggedKey(0x44)
	cert := []byte("origin-cert")
	buf := append([]byte{}, pub...)
	var certSize [2]byte
	binary.BigEndian.PutUint16(certSize[:], uint16(len(cert)))
	buf = append(buf, certSize[:]...)
	buf = append(buf, cert...)
	buf = append(buf, 0xff) // trailing garbage

	if _, err := ParseOriginContent(buf); err != ErrInvalidContent {
		t.Fatalf("err = %v, want ErrInvalidContent", err)
	}
}

func TestParseNodeSharedSecretsContent(t *testing.T) {
	nonce := sampleTaggedHash(0x55)
	seed := sampleTaggedHash(0x66)
	buf := append(append([]byte{}, nonce...), seed...)

	nc, err := ParseNodeSharedSecretsContent(buf)
	if err != nil {
		t.Fatalf("ParseNodeSharedSecretsContent: %v", err)
	}
	if !crypto.TaggedHash(nonce).Equal(nc.DailyNonceSeed) {
		t.Errorf("daily nonce seed mismatch")
	}
	if !crypto.TaggedHash(seed).Equal(nc.NetworkSeed) {
		t.Errorf("network seed mismatch")
	}
}

func TestParseNodeSharedSecretsContentRejectsTrailingBytes(t *testing.T) {
	nonce := sampleTaggedHash(0x55)
	seed := sampleTaggedHash(0x66)
	buf := append(append([]byte{}, nonce...), seed...)
	buf = append(buf, 0x01)

	if _, err := ParseNodeSharedSecretsContent(buf); err != ErrInvalidContent {
		t.Fatalf("err = %v, want ErrInvalidContent", err)
	}
}

func TestParseMintRewardsContent(t *testing.T) {
	raw, err := json.Marshal(map[string]uint64{"supply": 300000000})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	mc, err := ParseMintRewardsContent(raw)
	if err != nil {
		t.Fatalf("ParseMintRewardsContent: %v", err)
	}
	if mc.Supply != 300000000 {
		t.Errorf("supply = %d, want 300000000", mc.Supply)
	}
}

func TestParseMintRewardsContentRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseMintRewardsContent([]byte("not json")); err != ErrInvalidContent {
		t.Fatalf("err = %v, want ErrInvalidContent", err)
	}
}

func TestParseTokenContent(t *testing.T) {
	raw := []byte(`{"supply":500000000,"name":"MeshToken","type":"non-fungible","symbol":"MSH","collection":[{"id":1},{"id":2},{"id":3},{"id":4},{"id":5}]}`)

	tc, err := ParseTokenContent(raw)
	if err != nil {
		t.Fatalf("ParseTokenContent: %v", err)
	}
	if tc.Supply != 500000000 {
		t.Errorf("supply = %d, want 500000000", tc.Supply)
	}
	if tc.Type != "non-fungible" {
		t.Errorf("type = %q, want non-fungible", tc.Type)
	}
	if len(tc.Collection) != 5 {
		t.Errorf("collection length = %d, want 5", len(tc.Collection))
	}
}

func TestParseTokenContentRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseTokenContent([]byte("{not json")); err != ErrInvalidContent {
		t.Fatalf("err = %v, want ErrInvalidContent", err)
	}
}
