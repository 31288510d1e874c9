package bitcoin

import "fmt"

// Engine evaluates a Bitcoin script against a fetch-decode-execute
// loop over a dense opcode dispatch table. Grounded on the structural
// shape of pouria-shahmiri/learn-bitcoin's Engine (stack/altStack/
// script/pc/tx/inputIdx) and daglabs-btcd's txscript Engine (condStack/
// isBranchExecuting, validPC, Step), generalized to the full classic
// opcode set and the flag-gated behaviors SPEC_FULL.md documents.
type Engine struct {
	script   Script
	pc       int
	curOp    ScriptOpcode
	flags    ScriptFlags
	finished bool

	mainStack *Stack
	altStack  *Stack
	condStack condStack

	lastCodeSeparator int

	tx       *Transaction
	txIdx    int
	prevOuts []TxOutput
}

// condStack tracks OP_IF/NOTIF/ELSE/ENDIF nesting. Each entry is true
// when that level's branch is executing; execution at the current
// depth requires every enclosing level to also be executing.
type condStack []bool

func (c *condStack) push(executing bool) {
	*c = append(*c, executing)
}

func (c *condStack) pop() error {
	if len(*c) == 0 {
		return scriptError(ErrKindVerifyFailed, "OP_ENDIF without matching OP_IF")
	}
	*c = (*c)[:len(*c)-1]
	return nil
}

func (c *condStack) toggle() error {
	n := len(*c)
	if n == 0 {
		return scriptError(ErrKindVerifyFailed, "OP_ELSE without matching OP_IF")
	}
	(*c)[n-1] = !(*c)[n-1]
	return nil
}

// allExecuting reports whether every enclosing conditional branch is
// currently taken, i.e. the engine is not skipping dead code.
func (c condStack) allExecuting() bool {
	for _, executing := range c {
		if !executing {
			return false
		}
	}
	return true
}

func (c condStack) depth() int {
	return len(c)
}

// NewEngine constructs an Engine ready to run script against the given
// transaction context. tx/txIdx/prevOuts may be left zero-valued for
// scripts that never reach OP_CHECKSIG/OP_CHECKMULTISIG.
func NewEngine(script Script, tx *Transaction, txIdx int, prevOuts []TxOutput, flags ScriptFlags) *Engine {
	return &Engine{
		script:    script,
		mainStack: NewStack(),
		altStack:  NewStack(),
		flags:     flags,
		tx:        tx,
		txIdx:     txIdx,
		prevOuts:  prevOuts,
	}
}

// Execute runs script to completion (or the first error) and reports
// the final result per CheckErrorCondition: the top-of-stack value must
// be true, and — when ScriptVerifyCleanStack is set — it must be the
// only item left.
func (e *Engine) Execute() (bool, error) {
	for !e.finished {
		if err := e.Step(); err != nil {
			return false, err
		}
	}
	return e.CheckResult()
}

// Step executes exactly one opcode and advances the program counter,
// or marks the engine finished when the script is exhausted. Exposed
// separately from Execute so callers (tests, a future debugger) can
// single-step.
func (e *Engine) Step() error {
	if e.pc >= len(e.script) {
		e.finished = true
		return nil
	}

	op := ScriptOpcode(e.script[e.pc])
	e.curOp = op
	e.pc++

	entry := opcodeTable[op]
	if entry.exec == nil {
		return scriptErrorf(ErrKindUnknownOpcode, "opcode %#x has no dispatch entry", op)
	}

	executing := e.condStack.allExecuting()
	if !executing && !entry.alwaysIllegal && !entry.conditional {
		return nil
	}

	if err := entry.exec(e); err != nil {
		return err
	}

	if e.mainStack.Len()+e.altStack.Len() > 1000 {
		return scriptError(ErrKindOutOfMemory, "combined stack depth exceeds 1000 items")
	}

	return nil
}

// CheckResult reports pass/fail once execution has finished, without
// re-running the script.
func (e *Engine) CheckResult() (bool, error) {
	if e.condStack.depth() != 0 {
		return false, scriptError(ErrKindVerifyFailed, "unbalanced conditional: script ended inside OP_IF/OP_NOTIF")
	}

	if e.flags&ScriptVerifyCleanStack != 0 && e.mainStack.Len() != 1 {
		return false, scriptErrorf(ErrKindVerifyFailed,
			"clean stack required: %d items remain", e.mainStack.Len())
	}

	if e.mainStack.Len() == 0 {
		return false, scriptError(ErrKindVerifyFailed, "script left an empty stack")
	}

	top, err := e.mainStack.Peek(0)
	if err != nil {
		return false, err
	}
	return IsTrue(top), nil
}

// MainStack exposes a snapshot of the main stack for inspection.
func (e *Engine) MainStack() [][]byte {
	return e.mainStack.Snapshot()
}

// AltStack exposes a snapshot of the alt stack for inspection.
func (e *Engine) AltStack() [][]byte {
	return e.altStack.Snapshot()
}

// VerifyScript runs the classic two-stage verification: scriptSig
// executes into a fresh stack, then scriptPubKey continues against
// that same stack. Splitting scriptSig out as its own Engine (rather
// than concatenating the two scripts into one) keeps scriptPubKey from
// ever observing scriptSig's opcodes, matching the separation the
// BlockChain's transaction-acceptance path relies on.
func VerifyScript(scriptSig, scriptPubKey Script, tx *Transaction, txIdx int, prevOuts []TxOutput, flags ScriptFlags) (bool, error) {
	sigEngine := NewEngine(scriptSig, tx, txIdx, prevOuts, flags)
	for !sigEngine.finished {
		if err := sigEngine.Step(); err != nil {
			return false, fmt.Errorf("scriptSig: %w", err)
		}
	}

	pubKeyEngine := NewEngine(scriptPubKey, tx, txIdx, prevOuts, flags)
	pubKeyEngine.mainStack = sigEngine.mainStack
	pubKeyEngine.altStack = sigEngine.altStack

	for !pubKeyEngine.finished {
		if err := pubKeyEngine.Step(); err != nil {
			return false, fmt.Errorf("scriptPubKey: %w", err)
		}
	}

	return pubKeyEngine.CheckResult()
}

// checkSignature verifies sig against pubKey using the engine's
// transaction context, computing the legacy sighash over the script
// from the last OP_CODESEPARATOR onward. The DER/ECDSA mechanics live
// in signature.go; this only wires up what script bytes get signed.
func (e *Engine) checkSignature(sig, pubKey []byte) (bool, error) {
	if len(sig) == 0 || len(pubKey) == 0 {
		return false, nil
	}
	if e.flags&ScriptVerifyStrictEnc != 0 {
		if err := checkPublicKeyEncoding(pubKey); err != nil {
			return false, err
		}
	}

	rawSig := sig[:len(sig)-1]
	hashType := SignatureHashType(sig[len(sig)-1])

	if e.flags&ScriptVerifyDERSig != 0 || e.flags&ScriptVerifyStrictEnc != 0 {
		if err := checkSignatureEncoding(rawSig, e.flags); err != nil {
			return false, err
		}
	}

	if e.tx == nil {
		return false, nil
	}

	subscript := e.subscript()
	sigHash, err := e.tx.ComputeSignatureHash(e.txIdx, subscript, hashType)
	if err != nil {
		return false, err
	}

	valid, err := verifySignature(sigHash, rawSig, pubKey)
	if err != nil {
		if e.flags&ScriptVerifyNullFail != 0 {
			return false, err
		}
		return false, nil
	}
	return valid, nil
}

// subscript returns the portion of the currently executing script
// that signatures commit to: everything from the last-executed
// OP_CODESEPARATOR onward, per the classic sighash procedure.
func (e *Engine) subscript() []byte {
	return e.script[e.lastCodeSeparator:]
}

// execCheckMultiSig implements OP_CHECKMULTISIG's (1-indexed, off-by-
// one-preserving) pubkey/signature matching: pop N pubkeys, M
// signatures, and a dummy element consumed for the historical
// CHECKMULTISIG off-by-one bug, then verify the M signatures match M
// of the N pubkeys in order.
func (e *Engine) execCheckMultiSig(verify bool) error {
	nPub, err := e.mainStack.PopInt()
	if err != nil {
		return err
	}
	if nPub < 0 || nPub > 20 {
		return scriptErrorf(ErrKindInvalidNumber, "OP_CHECKMULTISIG: pubkey count %d out of range", nPub)
	}
	pubKeys := make([][]byte, nPub)
	for i := int64(0); i < nPub; i++ {
		pk, err := e.mainStack.Pop()
		if err != nil {
			return err
		}
		pubKeys[i] = pk
	}

	nSig, err := e.mainStack.PopInt()
	if err != nil {
		return err
	}
	if nSig < 0 || nSig > nPub {
		return scriptErrorf(ErrKindInvalidNumber, "OP_CHECKMULTISIG: signature count %d out of range", nSig)
	}
	sigs := make([][]byte, nSig)
	for i := int64(0); i < nSig; i++ {
		s, err := e.mainStack.Pop()
		if err != nil {
			return err
		}
		sigs[i] = s
	}

	// The dummy element consumed here is the historical off-by-one bug
	// in Bitcoin Core's original OP_CHECKMULTISIG: an extra stack item
	// is popped and discarded. ScriptVerifyNullDummy requires it to be
	// empty rather than silently ignoring arbitrary bytes.
	dummy, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	if e.flags&ScriptVerifyNullDummy != 0 && len(dummy) != 0 {
		return scriptError(ErrKindInvalidSignature, "OP_CHECKMULTISIG: dummy element must be empty")
	}

	sigIdx, keyIdx := 0, 0
	success := true
	for sigIdx < len(sigs) {
		if keyIdx >= len(pubKeys) {
			success = false
			break
		}
		ok, err := e.checkSignature(sigs[sigIdx], pubKeys[keyIdx])
		if err != nil {
			return err
		}
		if ok {
			sigIdx++
		}
		keyIdx++
		if len(sigs)-sigIdx > len(pubKeys)-keyIdx {
			success = false
			break
		}
	}

	if success {
		return e.mainStack.PushInt(1)
	}
	return e.mainStack.PushInt(0)
}
