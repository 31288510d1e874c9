package bitcoin

import (
	"encoding/binary"
	"fmt"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/sirupsen/logrus"
)

// UTXO represents an unspent transaction output.
type UTXO struct {
	txHash       Hash256
	outputIndex  uint32
	amount       uint64
	scriptPubKey []byte
}

// NewUTXO creates a new UTXO.
func NewUTXO(txHash Hash256, outputIndex uint32, amount uint64, scriptPubKey []byte) *UTXO {
	script := make([]byte, len(scriptPubKey))
	copy(script, scriptPubKey)
	return &UTXO{
		txHash:       txHash,
		outputIndex:  outputIndex,
		amount:       amount,
		scriptPubKey: script,
	}
}

// TxHash returns the transaction hash.
func (u *UTXO) TxHash() Hash256 {
	return u.txHash
}

// OutputIndex returns the output index.
func (u *UTXO) OutputIndex() uint32 {
	return u.outputIndex
}

// Amount returns the amount in satoshis.
func (u *UTXO) Amount() uint64 {
	return u.amount
}

// ScriptPubKey returns the script public key.
func (u *UTXO) ScriptPubKey() []byte {
	return u.scriptPubKey
}

// UTXOSet is a badger-backed store of unspent transaction outputs,
// keyed by (txHash, outputIndex). Grounded on the key-value persistence
// idiom the retrieved corpus uses badger/v2 for; the in-memory mode
// (NewUTXOSet) keeps the teacher's original zero-argument constructor
// and in-process test ergonomics, while NewUTXOSetAt opens a real
// on-disk store for a running node.
type UTXOSet struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewUTXOSet opens an in-memory badger-backed UTXO set, suitable for
// tests and short-lived processes that don't need the set to survive a
// restart.
func NewUTXOSet() *UTXOSet {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		// An in-memory badger instance has no filesystem dependency;
		// failure here means badger itself is misconfigured, not a
		// recoverable runtime condition.
		panic(fmt.Sprintf("bitcoin: failed to open in-memory UTXO store: %v", err))
	}
	return &UTXOSet{db: db, log: logrus.WithField("component", "utxoset")}
}

// NewUTXOSetAt opens a UTXO set persisted to dir on disk, for a node
// that must survive a restart without replaying the entire chain.
func NewUTXOSetAt(dir string) (*UTXOSet, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open UTXO store at %s: %w", dir, err)
	}
	return &UTXOSet{db: db, log: logrus.WithField("component", "utxoset").WithField("dir", dir)}, nil
}

// Close releases the underlying badger handle.
func (s *UTXOSet) Close() error {
	return s.db.Close()
}

func utxoKey(txHash Hash256, outputIndex uint32) []byte {
	key := make([]byte, 36)
	copy(key[:32], txHash[:])
	binary.BigEndian.PutUint32(key[32:], outputIndex)
	return key
}

func encodeUTXOValue(amount uint64, scriptPubKey []byte) []byte {
	value := make([]byte, 8+len(scriptPubKey))
	binary.LittleEndian.PutUint64(value[:8], amount)
	copy(value[8:], scriptPubKey)
	return value
}

func decodeUTXOValue(txHash Hash256, outputIndex uint32, value []byte) *UTXO {
	amount := binary.LittleEndian.Uint64(value[:8])
	scriptPubKey := make([]byte, len(value)-8)
	copy(scriptPubKey, value[8:])
	return &UTXO{txHash: txHash, outputIndex: outputIndex, amount: amount, scriptPubKey: scriptPubKey}
}

// Add adds a UTXO to the set.
func (s *UTXOSet) Add(utxo *UTXO) {
	key := utxoKey(utxo.txHash, utxo.outputIndex)
	value := encodeUTXOValue(utxo.amount, utxo.scriptPubKey)
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	}); err != nil {
		s.log.WithError(err).Error("failed to persist UTXO")
	}
}

// Remove removes a UTXO from the set, reporting whether it existed.
func (s *UTXOSet) Remove(txHash Hash256, outputIndex uint32) bool {
	key := utxoKey(txHash, outputIndex)
	existed := false
	if err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			existed = true
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if !existed {
			return nil
		}
		return txn.Delete(key)
	}); err != nil {
		s.log.WithError(err).Error("failed to remove UTXO")
		return false
	}
	return existed
}

// Find looks up a UTXO in the set.
func (s *UTXOSet) Find(txHash Hash256, outputIndex uint32) (*UTXO, bool) {
	key := utxoKey(txHash, outputIndex)
	var utxo *UTXO
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			utxo = decodeUTXOValue(txHash, outputIndex, val)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	return utxo, true
}

// Size returns the number of UTXOs in the set.
func (s *UTXOSet) Size() int {
	count := 0
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// ValidateSpend reports whether a UTXO exists and holds at least
// amount. Script validation is performed separately by the engine; this
// check is the UTXO-set-level prerequisite.
func (s *UTXOSet) ValidateSpend(txHash Hash256, outputIndex uint32, amount uint64) bool {
	utxo, exists := s.Find(txHash, outputIndex)
	if !exists {
		return false
	}
	return utxo.amount >= amount
}

// TotalValue calculates the total value of all UTXOs in the set.
func (s *UTXOSet) TotalValue() uint64 {
	var total uint64
	_ = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				total += binary.LittleEndian.Uint64(val[:8])
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return total
}

// GetAllUTXOs returns all UTXOs in the set.
func (s *UTXOSet) GetAllUTXOs() []*UTXO {
	var utxos []*UTXO
	_ = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			var txHash Hash256
			copy(txHash[:], key[:32])
			outputIndex := binary.BigEndian.Uint32(key[32:])
			if err := item.Value(func(val []byte) error {
				utxos = append(utxos, decodeUTXOValue(txHash, outputIndex, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return utxos
}

// Clear removes all UTXOs from the set.
func (s *UTXOSet) Clear() {
	if err := s.db.DropAll(); err != nil {
		s.log.WithError(err).Error("failed to clear UTXO store")
	}
}
