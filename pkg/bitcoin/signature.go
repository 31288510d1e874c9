package bitcoin

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// verifySignature checks a raw (hashType byte already stripped) DER
// ECDSA signature against pubKey over sigHash, using
// btcsuite/btcd/btcec/v2's secp256k1 implementation and its DER
// parser. The opcode/engine layer is responsible for everything about
// *which* bytes get hashed; this is the crypto-primitive boundary
// SPEC_FULL.md keeps narrow.
func verifySignature(sigHash Hash256, rawSig, pubKeyBytes []byte) (bool, error) {
	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false, scriptErrorf(ErrKindInvalidSignature, "invalid public key: %v", err)
	}

	sig, err := ecdsa.ParseDERSignature(rawSig)
	if err != nil {
		return false, scriptErrorf(ErrKindInvalidSignature, "invalid DER signature: %v", err)
	}

	return sig.Verify(sigHash[:], pubKey), nil
}

// checkPublicKeyEncoding enforces the strict pubkey encoding rule: a
// compressed (0x02/0x03 prefix, 33 bytes) or uncompressed (0x04
// prefix, 65 bytes) SEC1 point, nothing else.
func checkPublicKeyEncoding(pubKey []byte) error {
	switch {
	case len(pubKey) == CompressedPubKeySize && (pubKey[0] == 0x02 || pubKey[0] == 0x03):
		return nil
	case len(pubKey) == UncompressedPubKeySize && pubKey[0] == 0x04:
		return nil
	default:
		return scriptErrorf(ErrKindInvalidSignature, "public key is neither compressed nor uncompressed: %d bytes", len(pubKey))
	}
}

// checkSignatureEncoding enforces strict DER encoding (BIP66) and,
// when ScriptVerifyLowS is set, that S is in the lower half of the
// curve order (BIP62 rule 5) to reject signature malleability.
func checkSignatureEncoding(rawSig []byte, flags ScriptFlags) error {
	if len(rawSig) == 0 {
		return nil
	}
	if err := checkDEREncoding(rawSig); err != nil {
		return err
	}
	if flags&ScriptVerifyLowS != 0 {
		sig, err := ecdsa.ParseDERSignature(rawSig)
		if err != nil {
			return scriptErrorf(ErrKindInvalidSignature, "invalid DER signature: %v", err)
		}
		if !isLowS(sig) {
			return scriptError(ErrKindInvalidSignature, "signature S value is not in the lower half of the curve order")
		}
	}
	return nil
}

// checkDEREncoding performs the structural BIP66 checks on a raw
// signature (the sighash byte already stripped): a single SEQUENCE of
// exactly two INTEGERs with no trailing data, consistent length
// fields, and minimally-encoded non-negative R/S components.
func checkDEREncoding(sig []byte) error {
	if len(sig) < 9 || len(sig) > 73 {
		return scriptErrorf(ErrKindInvalidSignature, "DER signature length %d out of range", len(sig))
	}
	if sig[0] != 0x30 {
		return scriptError(ErrKindInvalidSignature, "DER signature does not start with a SEQUENCE tag")
	}
	if int(sig[1]) != len(sig)-2 {
		return scriptError(ErrKindInvalidSignature, "DER signature length field mismatch")
	}

	if sig[2] != 0x02 {
		return scriptError(ErrKindInvalidSignature, "DER signature R is not an INTEGER")
	}
	rLen := int(sig[3])
	if rLen == 0 || 4+rLen > len(sig) {
		return scriptError(ErrKindInvalidSignature, "DER signature R length invalid")
	}
	if sig[4]&0x80 != 0 {
		return scriptError(ErrKindInvalidSignature, "DER signature R is negative")
	}
	if rLen > 1 && sig[4] == 0x00 && sig[5]&0x80 == 0 {
		return scriptError(ErrKindInvalidSignature, "DER signature R is not minimally encoded")
	}

	sOffset := 4 + rLen
	if sOffset+2 > len(sig) || sig[sOffset] != 0x02 {
		return scriptError(ErrKindInvalidSignature, "DER signature S is not an INTEGER")
	}
	sLen := int(sig[sOffset+1])
	if sLen == 0 || sOffset+2+sLen != len(sig) {
		return scriptError(ErrKindInvalidSignature, "DER signature S length invalid")
	}
	if sig[sOffset+2]&0x80 != 0 {
		return scriptError(ErrKindInvalidSignature, "DER signature S is negative")
	}
	if sLen > 1 && sig[sOffset+2] == 0x00 && sig[sOffset+3]&0x80 == 0 {
		return scriptError(ErrKindInvalidSignature, "DER signature S is not minimally encoded")
	}

	return nil
}

// halfOrder is the secp256k1 group order divided by two, as big-endian
// bytes, used by isLowS.
var halfOrderBytes = [32]byte{
	0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0x5d, 0x57, 0x6e, 0x73, 0x57, 0xa4, 0x50, 0x1d,
	0xdf, 0xe9, 0x2f, 0x46, 0x68, 0x1b, 0x20, 0xa0,
}

func isLowS(sig *ecdsa.Signature) bool {
	sBytes := sig.Serialize()
	// Re-derive S from the DER encoding rather than poking at
	// unexported fields: the last length-prefixed INTEGER in the DER
	// blob is S.
	rLen := int(sBytes[3])
	sLenOffset := 4 + rLen + 1
	sLen := int(sBytes[sLenOffset])
	sStart := sLenOffset + 1
	sValue := sBytes[sStart : sStart+sLen]

	var s [32]byte
	copy(s[32-len(sValue):], sValue)
	for i := 0; i < 32; i++ {
		if s[i] != halfOrderBytes[i] {
			return s[i] < halfOrderBytes[i]
		}
	}
	return true
}
