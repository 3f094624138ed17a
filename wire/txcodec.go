package wire

import (
	"fmt"

	"github.com/meshchain/node/chain"
)

// writeTx appends tx's canonical serialisation, 32-bit length-prefixed so a
// frame containing further fields after the transaction can find its own
// boundary without re-parsing the transaction body.
func writeTx(w *writer, tx *chain.Transaction) error {
	b, err := tx.Serialize()
	if err != nil {
		return fmt.Errorf("wire: serialize transaction: %w", err)
	}
	w.lenPrefixedBytes(32, b)
	return nil
}

func readTx(r *reader) (*chain.Transaction, error) {
	b, err := r.lenPrefixedBytes(32)
	if err != nil {
		return nil, err
	}
	return chain.Deserialize(b)
}
