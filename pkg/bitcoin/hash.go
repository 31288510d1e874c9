package bitcoin

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160"
)

// Hash256 represents a 256-bit hash (32 bytes)
type Hash256 [32]byte

// ZeroHash represents an all-zero hash
var ZeroHash = Hash256{}

// NewHash256FromBytes creates a Hash256 from a byte slice
func NewHash256FromBytes(b []byte) (Hash256, error) {
	if len(b) != 32 {
		return ZeroHash, fmt.Errorf("invalid hash length: expected 32 bytes, got %d", len(b))
	}
	var hash Hash256
	copy(hash[:], b)
	return hash, nil
}

// NewHash256FromString creates a Hash256 from a hex string
func NewHash256FromString(s string) (Hash256, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid hex string: %v", err)
	}
	return NewHash256FromBytes(b)
}

// String returns the hash as a hex string
func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the hash as a byte slice
func (h Hash256) Bytes() []byte {
	return h[:]
}

// IsZero returns true if the hash is all zeros
func (h Hash256) IsZero() bool {
	return h == ZeroHash
}

// DoubleHashSHA256 performs double SHA256 hashing (SHA256(SHA256(data))),
// the tx/block digest bitcoin uses throughout. Delegates to
// btcsuite/btcd's chainhash package, the tx-digest-provider collaborator
// interface's concrete implementation.
func DoubleHashSHA256(data []byte) Hash256 {
	return Hash256(chainhash.DoubleHashB(data))
}

// Hash160 represents a 160-bit hash (20 bytes) used for addresses
type Hash160 [20]byte

// ZeroHash160 represents an all-zero hash160
var ZeroHash160 = Hash160{}

// NewHash160FromBytes creates a Hash160 from a byte slice
func NewHash160FromBytes(b []byte) (Hash160, error) {
	if len(b) != 20 {
		return ZeroHash160, fmt.Errorf("invalid hash160 length: expected 20 bytes, got %d", len(b))
	}
	var hash Hash160
	copy(hash[:], b)
	return hash, nil
}

// String returns the hash160 as a hex string
func (h Hash160) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the hash160 as a byte slice
func (h Hash160) Bytes() []byte {
	return h[:]
}

// sha256Sum returns the single SHA-256 digest of data, used by the
// OP_SHA256 opcode and by hash160.
func sha256Sum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// sha1Sum returns the SHA-1 digest backing OP_SHA1. Bitcoin script
// retains SHA-1 for historical scripts; it carries no security
// guarantee here beyond reproducing that behavior.
func sha1Sum(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

// ripemd160Sum returns the RIPEMD-160 digest backing OP_RIPEMD160, via
// golang.org/x/crypto/ripemd160 since the standard library does not
// implement the algorithm.
func ripemd160Sum(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

// hash160 computes RIPEMD160(SHA256(data)), the address/pubkey-hash
// function backing OP_HASH160, P2PKH and P2SH templates.
func hash160(data []byte) Hash160 {
	var result Hash160
	copy(result[:], ripemd160Sum(sha256Sum(data)))
	return result
}

// hash256 computes SHA256(SHA256(data)), backing OP_HASH256 (block and
// transaction identifiers call DoubleHashSHA256 directly).
func hash256(data []byte) Hash256 {
	return DoubleHashSHA256(data)
}
