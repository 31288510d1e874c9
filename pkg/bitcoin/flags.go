package bitcoin

// ScriptFlags is a bitset of independent, engine-wide verification
// policies (spec.md §6's "Flags" collaborator interface). Each bit has
// a documented, self-contained effect and may be set without the
// others.
type ScriptFlags uint32

const (
	// ScriptFlagsNone runs with no additional strictness beyond the
	// base consensus rules the dispatch table always enforces.
	ScriptFlagsNone ScriptFlags = 0

	// ScriptVerifyP2SH marks BIP16 pay-to-script-hash outputs as
	// standard. The dispatcher has no separate P2SH redemption path
	// (no Non-goal script-caching/consensus-complete validation pulls
	// it in), so this bit exists for callers to set but is currently a
	// documented no-op.
	ScriptVerifyP2SH ScriptFlags = 1 << iota

	// ScriptVerifyStrictEnc requires public keys (and, together with
	// ScriptVerifyDERSig, signatures) to use one of the recognized SEC1
	// encodings.
	ScriptVerifyStrictEnc

	// ScriptVerifyDERSig requires signatures to be strict BIP66 DER.
	ScriptVerifyDERSig

	// ScriptVerifyLowS requires a signature's S value to be in the
	// lower half of the curve order (BIP62 rule 5).
	ScriptVerifyLowS

	// ScriptVerifyNullDummy requires OP_CHECKMULTISIG's extra popped
	// element to be the empty byte string.
	ScriptVerifyNullDummy

	// ScriptVerifySigPushOnly requires scriptSig to contain only
	// push operations. Like ScriptVerifyP2SH, this is a property of
	// the scriptSig a caller selects before ever handing it to the
	// engine, not something the opcode dispatcher enforces mid-run;
	// documented no-op until a mempool-policy layer exists to apply it.
	ScriptVerifySigPushOnly

	// ScriptVerifyNullFail makes a signature or public key that cannot
	// be parsed during OP_CHECKSIG/OP_CHECKMULTISIG a hard script
	// failure; without it that check pushes false. A well-formed,
	// non-empty signature that fails verification pushes false either
	// way: failed signatures are not required to be empty.
	ScriptVerifyNullFail

	// ScriptVerifyMinimalData requires pushdata opcodes and numeric
	// decodes to use the shortest possible encoding.
	ScriptVerifyMinimalData

	// ScriptVerifyDiscourageUpgradableNops makes OP_NOP1 and
	// OP_NOP4-OP_NOP10 fail with an unknown-opcode error instead of
	// silently succeeding, so scripts can't rely on opcodes reserved
	// for future soft-forks behaving as a no-op.
	ScriptVerifyDiscourageUpgradableNops

	// ScriptVerifyMinimalIf requires OP_IF/OP_NOTIF's popped condition
	// to be exactly an empty array or single 0x01 byte.
	ScriptVerifyMinimalIf

	// ScriptVerifyCleanStack requires exactly one item remain on the
	// main stack at successful script completion.
	ScriptVerifyCleanStack

	// ScriptVerifyCheckLockTimeVerify enables OP_CHECKLOCKTIMEVERIFY
	// (BIP65); without it the opcode is a NOP.
	ScriptVerifyCheckLockTimeVerify

	// ScriptVerifyCheckSequenceVerify enables OP_CHECKSEQUENCEVERIFY
	// (BIP112); without it the opcode is a NOP.
	ScriptVerifyCheckSequenceVerify
)
