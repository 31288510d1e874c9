package bitcoin

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Transaction represents a Bitcoin transaction. SegWit witness data is
// out of scope (see the witness/SegWit non-goal); every transaction
// here uses the legacy wire encoding.
type Transaction struct {
	Version  uint32     `json:"version"`
	Inputs   []TxInput  `json:"inputs"`
	Outputs  []TxOutput `json:"outputs"`
	LockTime uint32     `json:"locktime"`

	// Cached value
	hash *Hash256 // Transaction ID
}

// TxInput represents a transaction input.
type TxInput struct {
	PreviousOutput OutPoint `json:"previous_output"`
	ScriptSig      []byte   `json:"script_sig"`
	Sequence       uint32   `json:"sequence"`
}

// TxOutput represents a transaction output.
type TxOutput struct {
	Value        uint64 `json:"value"` // Amount in satoshis
	ScriptPubKey []byte `json:"script_pubkey"`
}

// OutPoint represents a reference to a transaction output.
type OutPoint struct {
	Hash  Hash256 `json:"hash"`  // Transaction hash
	Index uint32  `json:"index"` // Output index
}

// SignatureHashType selects which parts of a transaction a signature
// commits to (BIP legacy sighash types, pre-BIP143).
type SignatureHashType uint32

const (
	SigHashAll          SignatureHashType = 0x01
	SigHashNone         SignatureHashType = 0x02
	SigHashSingle       SignatureHashType = 0x03
	SigHashAnyOneCanPay SignatureHashType = 0x80
)

// baseType strips the ANYONECANPAY bit to recover the underlying
// ALL/NONE/SINGLE selector.
func (t SignatureHashType) baseType() SignatureHashType {
	return t &^ SigHashAnyOneCanPay
}

func (t SignatureHashType) anyOneCanPay() bool {
	return t&SigHashAnyOneCanPay != 0
}

// NewTransaction creates a new transaction.
func NewTransaction(version uint32, inputs []TxInput, outputs []TxOutput, lockTime uint32) *Transaction {
	return &Transaction{
		Version:  version,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: lockTime,
	}
}

// EncodeVarInt encodes an integer as a Bitcoin variable-length integer.
func EncodeVarInt(value uint64) []byte {
	if value < 0xfd {
		return []byte{byte(value)}
	} else if value <= 0xffff {
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(value))
		return buf
	} else if value <= 0xffffffff {
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(value))
		return buf
	}
	buf := make([]byte, 9)
	buf[0] = 0xff
	binary.LittleEndian.PutUint64(buf[1:], value)
	return buf
}

// DecodeVarInt decodes a Bitcoin variable-length integer.
func DecodeVarInt(data []byte) (value uint64, bytesRead int, err error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("empty data")
	}

	first := data[0]
	if first < 0xfd {
		return uint64(first), 1, nil
	} else if first == 0xfd {
		if len(data) < 3 {
			return 0, 0, fmt.Errorf("insufficient data for fd varint")
		}
		return uint64(binary.LittleEndian.Uint16(data[1:3])), 3, nil
	} else if first == 0xfe {
		if len(data) < 5 {
			return 0, 0, fmt.Errorf("insufficient data for fe varint")
		}
		return uint64(binary.LittleEndian.Uint32(data[1:5])), 5, nil
	}
	if len(data) < 9 {
		return 0, 0, fmt.Errorf("insufficient data for ff varint")
	}
	return binary.LittleEndian.Uint64(data[1:9]), 9, nil
}

// Serialize converts the transaction to Bitcoin wire format.
func (tx *Transaction) Serialize() ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, tx.Version); err != nil {
		return nil, fmt.Errorf("failed to write version: %w", err)
	}

	buf.Write(EncodeVarInt(uint64(len(tx.Inputs))))
	for _, input := range tx.Inputs {
		hashBytes := input.PreviousOutput.Hash.Bytes()
		for i := len(hashBytes) - 1; i >= 0; i-- {
			buf.WriteByte(hashBytes[i])
		}
		if err := binary.Write(&buf, binary.LittleEndian, input.PreviousOutput.Index); err != nil {
			return nil, fmt.Errorf("failed to write previous output index: %w", err)
		}
		buf.Write(EncodeVarInt(uint64(len(input.ScriptSig))))
		buf.Write(input.ScriptSig)
		if err := binary.Write(&buf, binary.LittleEndian, input.Sequence); err != nil {
			return nil, fmt.Errorf("failed to write sequence: %w", err)
		}
	}

	buf.Write(EncodeVarInt(uint64(len(tx.Outputs))))
	for _, output := range tx.Outputs {
		if err := binary.Write(&buf, binary.LittleEndian, output.Value); err != nil {
			return nil, fmt.Errorf("failed to write output value: %w", err)
		}
		buf.Write(EncodeVarInt(uint64(len(output.ScriptPubKey))))
		buf.Write(output.ScriptPubKey)
	}

	if err := binary.Write(&buf, binary.LittleEndian, tx.LockTime); err != nil {
		return nil, fmt.Errorf("failed to write locktime: %w", err)
	}

	return buf.Bytes(), nil
}

// DeserializeTransaction deserializes a transaction from Bitcoin wire format.
func DeserializeTransaction(data []byte) (*Transaction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty transaction data")
	}

	tx := &Transaction{}
	offset := 0

	if len(data[offset:]) < 4 {
		return nil, fmt.Errorf("insufficient data for version")
	}
	tx.Version = binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4

	inputCount, bytesRead, err := DecodeVarInt(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode input count: %v", err)
	}
	offset += bytesRead
	if inputCount > 0x7fffffff {
		return nil, fmt.Errorf("input count too large: %d", inputCount)
	}

	tx.Inputs = make([]TxInput, int(inputCount))
	for i := uint64(0); i < inputCount; i++ {
		if len(data[offset:]) < 32 {
			return nil, fmt.Errorf("insufficient data for input %d hash", i)
		}
		for j := 0; j < 32; j++ {
			tx.Inputs[i].PreviousOutput.Hash[j] = data[offset+31-j]
		}
		offset += 32

		if len(data[offset:]) < 4 {
			return nil, fmt.Errorf("insufficient data for input %d index", i)
		}
		tx.Inputs[i].PreviousOutput.Index = binary.LittleEndian.Uint32(data[offset : offset+4])
		offset += 4

		scriptLen, bytesRead, err := DecodeVarInt(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode input %d script length: %v", i, err)
		}
		offset += bytesRead
		if scriptLen > 0x7fffffff {
			return nil, fmt.Errorf("input %d script length too large: %d", i, scriptLen)
		}
		scriptLenInt := int(scriptLen)
		if len(data[offset:]) < scriptLenInt {
			return nil, fmt.Errorf("insufficient data for input %d script", i)
		}
		tx.Inputs[i].ScriptSig = make([]byte, scriptLen)
		copy(tx.Inputs[i].ScriptSig, data[offset:offset+scriptLenInt])
		offset += scriptLenInt

		if len(data[offset:]) < 4 {
			return nil, fmt.Errorf("insufficient data for input %d sequence", i)
		}
		tx.Inputs[i].Sequence = binary.LittleEndian.Uint32(data[offset : offset+4])
		offset += 4
	}

	outputCount, bytesRead, err := DecodeVarInt(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode output count: %v", err)
	}
	offset += bytesRead
	if outputCount > 0x7fffffff {
		return nil, fmt.Errorf("output count too large: %d", outputCount)
	}

	tx.Outputs = make([]TxOutput, int(outputCount))
	for i := uint64(0); i < outputCount; i++ {
		if len(data[offset:]) < 8 {
			return nil, fmt.Errorf("insufficient data for output %d value", i)
		}
		tx.Outputs[i].Value = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8

		scriptLen, bytesRead, err := DecodeVarInt(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode output %d script length: %v", i, err)
		}
		offset += bytesRead
		if scriptLen > 0x7fffffff {
			return nil, fmt.Errorf("output %d script length too large: %d", i, scriptLen)
		}
		scriptLenInt := int(scriptLen)
		if len(data[offset:]) < scriptLenInt {
			return nil, fmt.Errorf("insufficient data for output %d script", i)
		}
		tx.Outputs[i].ScriptPubKey = make([]byte, scriptLen)
		copy(tx.Outputs[i].ScriptPubKey, data[offset:offset+scriptLenInt])
		offset += scriptLenInt
	}

	if len(data[offset:]) < 4 {
		return nil, fmt.Errorf("insufficient data for locktime")
	}
	tx.LockTime = binary.LittleEndian.Uint32(data[offset : offset+4])

	return tx, nil
}

// Hash returns the transaction ID: the double-SHA256 of the legacy wire
// serialization.
func (tx *Transaction) Hash() Hash256 {
	if tx.hash == nil {
		raw, err := tx.Serialize()
		if err != nil {
			hash := ZeroHash
			tx.hash = &hash
			return *tx.hash
		}
		hash := DoubleHashSHA256(raw)
		tx.hash = &hash
	}
	return *tx.hash
}

// ComputeSignatureHash computes the legacy (pre-BIP143) signature hash
// for inputIdx signing against subscript (the previous output's
// scriptPubKey, with OP_CODESEPARATOR-preceding bytes already removed
// by the caller). It follows the classic procedure: build a modified
// copy of the transaction per hashType, serialize it with the 4-byte
// hashType appended, and double-SHA256 the result.
func (tx *Transaction) ComputeSignatureHash(inputIdx int, subscript []byte, hashType SignatureHashType) (Hash256, error) {
	if inputIdx < 0 || inputIdx >= len(tx.Inputs) {
		return ZeroHash, fmt.Errorf("input index %d out of range (%d inputs)", inputIdx, len(tx.Inputs))
	}

	base := hashType.baseType()

	if base == SigHashSingle && inputIdx >= len(tx.Outputs) {
		// Historic bug preserved upstream: SIGHASH_SINGLE with no
		// matching output hashes the constant 0x01...00.
		var one Hash256
		one[0] = 0x01
		return one, nil
	}

	var inputs []TxInput
	if hashType.anyOneCanPay() {
		inputs = []TxInput{{
			PreviousOutput: tx.Inputs[inputIdx].PreviousOutput,
			ScriptSig:      subscript,
			Sequence:       tx.Inputs[inputIdx].Sequence,
		}}
	} else {
		inputs = make([]TxInput, len(tx.Inputs))
		for i, in := range tx.Inputs {
			script := []byte(nil)
			seq := in.Sequence
			if i == inputIdx {
				script = subscript
			} else if base == SigHashNone || base == SigHashSingle {
				// Sequences of other inputs are zeroed so they don't
				// commit to unrelated RBF/locktime intent.
				seq = 0
			}
			inputs[i] = TxInput{
				PreviousOutput: in.PreviousOutput,
				ScriptSig:      script,
				Sequence:       seq,
			}
		}
	}

	var outputs []TxOutput
	switch base {
	case SigHashAll:
		outputs = tx.Outputs
	case SigHashNone:
		outputs = nil
	case SigHashSingle:
		outputs = make([]TxOutput, inputIdx+1)
		for i := range outputs {
			outputs[i] = TxOutput{Value: 0xffffffffffffffff, ScriptPubKey: nil}
		}
		outputs[inputIdx] = tx.Outputs[inputIdx]
	default:
		return ZeroHash, fmt.Errorf("unsupported signature hash type %#x", hashType)
	}

	shallow := &Transaction{
		Version:  tx.Version,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: tx.LockTime,
	}

	raw, err := shallow.Serialize()
	if err != nil {
		return ZeroHash, err
	}

	var hashTypeBuf [4]byte
	binary.LittleEndian.PutUint32(hashTypeBuf[:], uint32(hashType))
	raw = append(raw, hashTypeBuf[:]...)

	return DoubleHashSHA256(raw), nil
}

// IsCoinbase returns true if this is a coinbase transaction.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 &&
		tx.Inputs[0].PreviousOutput.Hash.IsZero() &&
		tx.Inputs[0].PreviousOutput.Index == 0xffffffff
}

// TotalOutput calculates the total value of all outputs.
func (tx *Transaction) TotalOutput() uint64 {
	var total uint64
	for _, output := range tx.Outputs {
		total += output.Value
	}
	return total
}

// IsStandard checks if the transaction follows standard rules.
func (tx *Transaction) IsStandard() bool {
	for _, out := range tx.Outputs {
		if out.Value == 0 && Script(out.ScriptPubKey).AnalyzeScript() != ScriptTypeNullData {
			return false
		}
	}
	return true
}

// Validate performs basic validation checks.
func (tx *Transaction) Validate() error {
	if len(tx.Inputs) == 0 {
		return fmt.Errorf("transaction has no inputs")
	}

	if len(tx.Outputs) == 0 {
		return fmt.Errorf("transaction has no outputs")
	}

	seen := make(map[OutPoint]bool)
	for _, input := range tx.Inputs {
		if seen[input.PreviousOutput] {
			return fmt.Errorf("transaction has duplicate inputs")
		}
		seen[input.PreviousOutput] = true
	}

	for i, output := range tx.Outputs {
		if output.Value > MaxMoney {
			return fmt.Errorf("output %d value exceeds maximum", i)
		}
	}

	if tx.TotalOutput() > MaxMoney {
		return fmt.Errorf("total output value exceeds maximum")
	}

	return nil
}

// Constants
const (
	MaxMoney = 21000000 * 100000000 // 21 million BTC in satoshis
)

// String returns a string representation of the OutPoint.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.Hash.String(), op.Index)
}

// IsNull returns true if the outpoint is null (coinbase).
func (op OutPoint) IsNull() bool {
	return op.Hash.IsZero() && op.Index == 0xffffffff
}
