// Package wire implements the bijective binary codec (C3) for every
// request and response frame exchanged between nodes. Encoding is total;
// decoding never panics and reports Incomplete (more bytes needed) or
// Malformed/ErrUnknownFrame/ErrUnknownAlgorithm rather than guessing.
package wire

import (
	"encoding/hex"
	"fmt"

	"github.com/meshchain/node/chain"
	"github.com/meshchain/node/crypto"
)

// Encode serialises f to its wire representation. It fails when f embeds
// a transaction whose own serialisation fails, when a CrossValidate's
// replication-tree shape does not match V*W, when a Balance token key is
// not hex, and when f is not a known frame type.
func Encode(f Frame) ([]byte, error) {
	w := &writer{}
	w.byte(f.Tag())

	switch v := f.(type) {
	case GetBootstrappingNodes:
		w.bytes(v.Patch[:])
	case GetStorageNonce:
		w.taggedKey(v.PublicKey)
	case ListNodes:
	case GetTransaction:
		w.taggedHash(v.Address)
	case GetTransactionChain:
		w.taggedHash(v.Address)
		if v.After != nil {
			w.u32(*v.After)
		}
	case GetUnspentOutputs:
		w.taggedHash(v.Address)
	case NewTransaction:
		if err := writeTx(w, v.Tx); err != nil {
			return nil, err
		}
	case StartMining:
		if err := writeTx(w, v.Tx); err != nil {
			return nil, err
		}
		w.taggedKey(v.WelcomeKey)
		w.byte(byte(len(v.Keys)))
		for _, k := range v.Keys {
			w.taggedKey(k)
		}
	case AddMiningContext:
		w.taggedHash(v.Hash)
		w.taggedKey(v.Key)
		w.byte(byte(len(v.Keys)))
		for _, k := range v.Keys {
			w.taggedKey(k)
		}
		for _, view := range v.Views {
			w.bitVector(view)
		}
	case CrossValidate:
		w.taggedHash(v.Address)
		w.lenPrefixedBytes(8, v.Stamp)
		w.byte(v.V)
		w.byte(v.W)
		n := int(v.V) * int(v.W)
		for _, matrix := range v.ReplicationTree {
			if len(matrix) != n {
				return nil, fmt.Errorf("wire: %w: replication tree matrix shape mismatch", ErrMalformed)
			}
			w.bytes(packBits(matrix))
		}
	case CrossValidationDone:
		w.taggedHash(v.Address)
		w.lenPrefixedBytes(8, v.Stamp)
	case ReplicateTransaction:
		if err := writeTx(w, v.Tx); err != nil {
			return nil, err
		}
		w.byte(packRolesAck(v.Roles, v.AckStorage))
	case AcknowledgeStorage:
		w.taggedHash(v.Address)
	case NotifyEndOfNodeSync:
		w.taggedKey(v.Key)
		w.u32(v.Timestamp)
	case GetLastTransaction:
		w.taggedHash(v.Address)
	case GetBalance:
		w.taggedHash(v.Address)
	case GetTransactionInputs:
		w.taggedHash(v.Address)
	case GetTransactionChainLength:
		w.taggedHash(v.Address)
	case GetP2PView:
		w.u16(uint16(len(v.Keys)))
		for _, k := range v.Keys {
			w.taggedKey(k)
		}
	case GetFirstPublicKey:
		w.taggedHash(v.Address)
	case GetLastTransactionAddress:
		w.taggedHash(v.Address)
		w.u32(v.Timestamp)
	case NotifyLastTransactionAddress:
		w.taggedHash(v.PreviousAddress)
		w.taggedHash(v.NewAddress)
		w.u32(v.Timestamp)
	case GetTransactionSummary:
		w.taggedHash(v.Address)
	case NodeAvailability:
		w.taggedKey(v.Key)
	case Ping:

	case Error:
		w.byte(byte(v.Reason))
	case Ok:
	case TransactionResponse:
		if err := writeTx(w, v.Tx); err != nil {
			return nil, err
		}
	case NotFound:
	case TransactionList:
		w.u32(uint32(len(v.Transactions)))
		for _, tx := range v.Transactions {
			if err := writeTx(w, tx); err != nil {
				return nil, err
			}
		}
	case Balance:
		w.f64(amountToFloat(v.UCO))
		w.u16(uint16(len(v.Tokens)))
		for _, addr := range sortedStringKeys(v.Tokens) {
			raw, err := hex.DecodeString(addr)
			if err != nil {
				return nil, fmt.Errorf("%w: token address %q is not hex", ErrMalformed, addr)
			}
			w.bytes(raw)
			w.f64(amountToFloat(v.Tokens[addr]))
		}
	case UnspentOutputList:
		w.u32(uint32(len(v.Outputs)))
		for _, o := range v.Outputs {
			writeUnspentOutput(w, o)
		}
	case BootstrappingNodes:
		w.u16(uint16(len(v.Nodes)))
		for _, n := range v.Nodes {
			writeNodeRecord(w, n)
		}
	case LastTransactionAddress:
		w.taggedHash(v.Address)
		w.u32(v.Timestamp)
	case FirstPublicKey:
		w.taggedKey(v.PublicKey)
	case TransactionSummary:
		w.taggedHash(v.Address)
		w.byte(byte(v.Type))
	case EncryptedStorageNonce:
		w.lenPrefixedBytes(16, v.Nonce)
	case P2PView:
		w.bitVector(v.Availability)
	case TransactionInputList:
		w.u32(uint32(len(v.Outputs)))
		for _, o := range v.Outputs {
			writeUnspentOutput(w, o)
		}
	case TransactionChainLength:
		w.u32(v.Length)
	case NodeList:
		w.u16(uint16(len(v.Nodes)))
		for _, n := range v.Nodes {
			writeNodeRecord(w, n)
		}

	default:
		return nil, fmt.Errorf("wire: %w: no encoder for %T", ErrUnknownFrame, f)
	}

	return w.buf, nil
}

// Decode reads one frame from data and returns it together with the
// unconsumed remainder. On a decode error the remainder is not produced:
// callers must not assume any partial progress.
func Decode(data []byte) (Frame, []byte, error) {
	r := newReader(data)
	tag, err := r.byte()
	if err != nil {
		return nil, nil, err
	}

	if reservedFrame(tag) {
		return nil, nil, fmt.Errorf("wire: tag %d: %w", tag, ErrUnknownFrame)
	}

	f, err := decodeBody(tag, r)
	if err != nil {
		return nil, nil, err
	}
	return f, data[r.pos:], nil
}

func decodeBody(tag byte, r *reader) (Frame, error) {
	switch tag {
	case TagGetBootstrappingNodes:
		b, err := r.take(3)
		if err != nil {
			return nil, err
		}
		var f GetBootstrappingNodes
		copy(f.Patch[:], b)
		return f, nil

	case TagGetStorageNonce:
		k, err := r.taggedKey()
		if err != nil {
			return nil, err
		}
		return GetStorageNonce{PublicKey: k}, nil

	case TagListNodes:
		return ListNodes{}, nil

	case TagGetTransaction:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return GetTransaction{Address: a}, nil

	case TagGetTransactionChain:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		f := GetTransactionChain{Address: a}
		if r.remaining() >= 4 {
			after, err := r.u32()
			if err != nil {
				return nil, err
			}
			f.After = &after
		}
		return f, nil

	case TagGetUnspentOutputs:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return GetUnspentOutputs{Address: a}, nil

	case TagNewTransaction:
		tx, err := readTx(r)
		if err != nil {
			return nil, err
		}
		return NewTransaction{Tx: tx}, nil

	case TagStartMining:
		tx, err := readTx(r)
		if err != nil {
			return nil, err
		}
		welcome, err := r.taggedKey()
		if err != nil {
			return nil, err
		}
		n, err := r.byte()
		if err != nil {
			return nil, err
		}
		keys := make([]crypto.TaggedKey, n)
		for i := range keys {
			if keys[i], err = r.taggedKey(); err != nil {
				return nil, err
			}
		}
		return StartMining{Tx: tx, WelcomeKey: welcome, Keys: keys}, nil

	case TagAddMiningContext:
		hash, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		key, err := r.taggedKey()
		if err != nil {
			return nil, err
		}
		n, err := r.byte()
		if err != nil {
			return nil, err
		}
		keys := make([]crypto.TaggedKey, n)
		for i := range keys {
			if keys[i], err = r.taggedKey(); err != nil {
				return nil, err
			}
		}
		var views [3][]bool
		for i := range views {
			if views[i], err = r.bitVector(); err != nil {
				return nil, err
			}
		}
		return AddMiningContext{Hash: hash, Key: key, Keys: keys, Views: views}, nil

	case TagCrossValidate:
		addr, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		stamp, err := r.lenPrefixedBytes(8)
		if err != nil {
			return nil, err
		}
		v, err := r.byte()
		if err != nil {
			return nil, err
		}
		width, err := r.byte()
		if err != nil {
			return nil, err
		}
		n := int(v) * int(width)
		nbytes := (n + 7) / 8
		var tree [3][]bool
		for i := range tree {
			data, err := r.take(nbytes)
			if err != nil {
				return nil, err
			}
			tree[i] = unpackBits(data, n)
		}
		return CrossValidate{Address: addr, Stamp: stamp, V: v, W: width, ReplicationTree: tree}, nil

	case TagCrossValidationDone:
		addr, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		stamp, err := r.lenPrefixedBytes(8)
		if err != nil {
			return nil, err
		}
		return CrossValidationDone{Address: addr, Stamp: stamp}, nil

	case TagReplicateTransaction:
		tx, err := readTx(r)
		if err != nil {
			return nil, err
		}
		b, err := r.byte()
		if err != nil {
			return nil, err
		}
		roles, ack := unpackRolesAck(b)
		return ReplicateTransaction{Tx: tx, Roles: roles, AckStorage: ack}, nil

	case TagAcknowledgeStorage:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return AcknowledgeStorage{Address: a}, nil

	case TagNotifyEndOfNodeSync:
		key, err := r.taggedKey()
		if err != nil {
			return nil, err
		}
		ts, err := r.u32()
		if err != nil {
			return nil, err
		}
		return NotifyEndOfNodeSync{Key: key, Timestamp: ts}, nil

	case TagGetLastTransaction:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return GetLastTransaction{Address: a}, nil

	case TagGetBalance:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return GetBalance{Address: a}, nil

	case TagGetTransactionInputs:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return GetTransactionInputs{Address: a}, nil

	case TagGetTransactionChainLength:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return GetTransactionChainLength{Address: a}, nil

	case TagGetP2PView:
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		keys := make([]crypto.TaggedKey, n)
		for i := range keys {
			if keys[i], err = r.taggedKey(); err != nil {
				return nil, err
			}
		}
		return GetP2PView{Keys: keys}, nil

	case TagGetFirstPublicKey:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return GetFirstPublicKey{Address: a}, nil

	case TagGetLastTransactionAddress:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		ts, err := r.u32()
		if err != nil {
			return nil, err
		}
		return GetLastTransactionAddress{Address: a, Timestamp: ts}, nil

	case TagNotifyLastTransactionAddr:
		prev, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		next, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		ts, err := r.u32()
		if err != nil {
			return nil, err
		}
		return NotifyLastTransactionAddress{PreviousAddress: prev, NewAddress: next, Timestamp: ts}, nil

	case TagGetTransactionSummary:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		return GetTransactionSummary{Address: a}, nil

	case TagNodeAvailability:
		k, err := r.taggedKey()
		if err != nil {
			return nil, err
		}
		return NodeAvailability{Key: k}, nil

	case TagPing:
		return Ping{}, nil

	case TagError:
		reason, err := r.byte()
		if err != nil {
			return nil, err
		}
		return Error{Reason: ErrorReason(reason)}, nil

	case TagOk:
		return Ok{}, nil

	case TagTransaction:
		// Transparent alias (see DESIGN.md Open Question): decode exactly
		// as chain.Deserialize would, not as a wrapped sub-frame.
		tx, err := readTx(r)
		if err != nil {
			return nil, err
		}
		return TransactionResponse{Tx: tx}, nil

	case TagNotFound:
		return NotFound{}, nil

	case TagTransactionList:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		txs := make([]*chain.Transaction, n)
		for i := range txs {
			if txs[i], err = readTx(r); err != nil {
				return nil, err
			}
		}
		return TransactionList{Transactions: txs}, nil

	case TagBalance:
		uco, err := r.f64()
		if err != nil {
			return nil, err
		}
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		tokens := make(map[string]uint64, n)
		for i := uint16(0); i < n; i++ {
			addr, err := r.taggedHash()
			if err != nil {
				return nil, err
			}
			amt, err := r.f64()
			if err != nil {
				return nil, err
			}
			tokens[addr.String()] = floatToAmount(amt)
		}
		return Balance{UCO: floatToAmount(uco), Tokens: tokens}, nil

	case TagUnspentOutputList:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		outs := make([]UnspentOutput, n)
		for i := range outs {
			if outs[i], err = readUnspentOutput(r); err != nil {
				return nil, err
			}
		}
		return UnspentOutputList{Outputs: outs}, nil

	case TagBootstrappingNodes:
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		nodes := make([]chain.NodeRecord, n)
		for i := range nodes {
			if nodes[i], err = readNodeRecord(r); err != nil {
				return nil, err
			}
		}
		return BootstrappingNodes{Nodes: nodes}, nil

	case TagLastTransactionAddress:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		ts, err := r.u32()
		if err != nil {
			return nil, err
		}
		return LastTransactionAddress{Address: a, Timestamp: ts}, nil

	case TagFirstPublicKey:
		k, err := r.taggedKey()
		if err != nil {
			return nil, err
		}
		return FirstPublicKey{PublicKey: k}, nil

	case TagTransactionSummary:
		a, err := r.taggedHash()
		if err != nil {
			return nil, err
		}
		t, err := r.byte()
		if err != nil {
			return nil, err
		}
		return TransactionSummary{Address: a, Type: chain.Type(t)}, nil

	case TagEncryptedStorageNonce:
		nonce, err := r.lenPrefixedBytes(16)
		if err != nil {
			return nil, err
		}
		return EncryptedStorageNonce{Nonce: nonce}, nil

	case TagP2PView:
		bits, err := r.bitVector()
		if err != nil {
			return nil, err
		}
		return P2PView{Availability: bits}, nil

	case TagTransactionInputList:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		outs := make([]UnspentOutput, n)
		for i := range outs {
			if outs[i], err = readUnspentOutput(r); err != nil {
				return nil, err
			}
		}
		return TransactionInputList{Outputs: outs}, nil

	case TagTransactionChainLength:
		// Transparent alias (see DESIGN.md Open Question): decode exactly
		// as a bare u32 would, not as a wrapped sub-frame.
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		return TransactionChainLength{Length: n}, nil

	case TagNodeList:
		n, err := r.u16()
		if err != nil {
			return nil, err
		}
		nodes := make([]chain.NodeRecord, n)
		for i := range nodes {
			if nodes[i], err = readNodeRecord(r); err != nil {
				return nil, err
			}
		}
		return NodeList{Nodes: nodes}, nil
	}

	return nil, fmt.Errorf("wire: tag %d: %w", tag, ErrUnknownFrame)
}

func writeUnspentOutput(w *writer, o UnspentOutput) {
	w.taggedHash(o.From)
	w.u64(o.Amount)
	w.byte(byte(o.Type))
}

func readUnspentOutput(r *reader) (UnspentOutput, error) {
	var o UnspentOutput
	var err error
	if o.From, err = r.taggedHash(); err != nil {
		return o, err
	}
	if o.Amount, err = r.u64(); err != nil {
		return o, err
	}
	t, err := r.byte()
	if err != nil {
		return o, err
	}
	o.Type = chain.Type(t)
	return o, nil
}

func packRolesAck(roles ReplicationRoles, ack bool) byte {
	var b byte
	if roles.Chain {
		b |= 1 << 7
	}
	if roles.IO {
		b |= 1 << 6
	}
	if roles.Beacon {
		b |= 1 << 5
	}
	if ack {
		b |= 1 << 4
	}
	return b
}

func unpackRolesAck(b byte) (ReplicationRoles, bool) {
	return ReplicationRoles{
		Chain: b&(1<<7) != 0,
		IO:    b&(1<<6) != 0,
		Beacon: b&(1<<5) != 0,
	}, b&(1<<4) != 0
}

func sortedStringKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
