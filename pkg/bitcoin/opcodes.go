package bitcoin

import "bytes"

// opcodeEntry is one row of the dense dispatch table indexed by opcode
// byte value. Grounded on bfix-gospel/bitcoin-script-opcodes' OpCode{
// Name, Value, Exec} shape, adapted to carry the engine's conditional-
// execution and disabled-opcode flags alongside the executor.
type opcodeEntry struct {
	name string
	// alwaysIllegal opcodes fail dispatch even inside a non-executing
	// conditional branch (the disabled string/bitwise family).
	alwaysIllegal bool
	// conditional opcodes (IF/NOTIF/ELSE/ENDIF) always run regardless
	// of the current branch state, since they manage that state.
	conditional bool
	exec        func(e *Engine) error
}

// opcodeTable is indexed directly by opcode byte value. Entries left
// zero-valued (nil exec, empty name) are unassigned and dispatch as
// ErrKindUnknownOpcode.
var opcodeTable [256]opcodeEntry

func init() {
	// Direct data pushes: opcode byte N (1-75) pushes the next N bytes.
	for i := 1; i <= 75; i++ {
		n := i
		opcodeTable[i] = opcodeEntry{name: "OP_DATA", exec: func(e *Engine) error {
			return e.pushNextBytes(n)
		}}
	}

	reg := func(op ScriptOpcode, name string, fn func(e *Engine) error) {
		opcodeTable[op] = opcodeEntry{name: name, exec: fn}
	}
	regCond := func(op ScriptOpcode, name string, fn func(e *Engine) error) {
		opcodeTable[op] = opcodeEntry{name: name, conditional: true, exec: fn}
	}
	regIllegal := func(op ScriptOpcode, name string) {
		opcodeTable[op] = opcodeEntry{name: name, alwaysIllegal: true, exec: func(e *Engine) error {
			return scriptErrorf(ErrKindDisabledOpcode, "%s is disabled", name)
		}}
	}

	reg(OP_0, "OP_0", opFalse)
	reg(OP_PUSHDATA1, "OP_PUSHDATA1", opPushData1)
	reg(OP_PUSHDATA2, "OP_PUSHDATA2", opPushData2)
	reg(OP_PUSHDATA4, "OP_PUSHDATA4", opPushData4)
	reg(OP_1NEGATE, "OP_1NEGATE", opNum(-1))
	reg(OP_RESERVED, "OP_RESERVED", opReserved)
	for i := 0; i <= 16; i++ {
		op := ScriptOpcode(int(OP_1) + i - 1)
		if i == 0 {
			continue
		}
		reg(op, "OP_"+itoa(i), opNum(int64(i)))
	}

	reg(OP_NOP, "OP_NOP", opNop)
	reg(OP_VER, "OP_VER", opReserved)
	regCond(OP_IF, "OP_IF", opIf)
	regCond(OP_NOTIF, "OP_NOTIF", opNotIf)
	reg(OP_VERIF, "OP_VERIF", opReserved)
	reg(OP_VERNOTIF, "OP_VERNOTIF", opReserved)
	regCond(OP_ELSE, "OP_ELSE", opElse)
	regCond(OP_ENDIF, "OP_ENDIF", opEndIf)
	reg(OP_VERIFY, "OP_VERIFY", opVerify)
	reg(OP_RETURN, "OP_RETURN", opReturn)

	reg(OP_TOALTSTACK, "OP_TOALTSTACK", opToAltStack)
	reg(OP_FROMALTSTACK, "OP_FROMALTSTACK", opFromAltStack)
	reg(OP_2DROP, "OP_2DROP", op2Drop)
	reg(OP_2DUP, "OP_2DUP", op2Dup)
	reg(OP_3DUP, "OP_3DUP", op3Dup)
	reg(OP_2OVER, "OP_2OVER", op2Over)
	reg(OP_2ROT, "OP_2ROT", op2Rot)
	reg(OP_2SWAP, "OP_2SWAP", op2Swap)
	reg(OP_IFDUP, "OP_IFDUP", opIfDup)
	reg(OP_DEPTH, "OP_DEPTH", opDepth)
	reg(OP_DROP, "OP_DROP", opDrop)
	reg(OP_DUP, "OP_DUP", opDup)
	reg(OP_NIP, "OP_NIP", opNip)
	reg(OP_OVER, "OP_OVER", opOver)
	reg(OP_PICK, "OP_PICK", opPick)
	reg(OP_ROLL, "OP_ROLL", opRoll)
	reg(OP_ROT, "OP_ROT", opRot)
	reg(OP_SWAP, "OP_SWAP", opSwap)
	reg(OP_TUCK, "OP_TUCK", opTuck)

	regIllegal(OP_CAT, "OP_CAT")
	regIllegal(OP_SUBSTR, "OP_SUBSTR")
	regIllegal(OP_LEFT, "OP_LEFT")
	regIllegal(OP_RIGHT, "OP_RIGHT")
	regIllegal(OP_INVERT, "OP_INVERT")
	regIllegal(OP_AND, "OP_AND")
	regIllegal(OP_OR, "OP_OR")
	regIllegal(OP_XOR, "OP_XOR")
	regIllegal(OP_MUL2, "OP_2MUL")
	regIllegal(OP_DIV2, "OP_2DIV")
	regIllegal(OP_MUL, "OP_MUL")
	regIllegal(OP_DIV, "OP_DIV")
	regIllegal(OP_MOD, "OP_MOD")
	regIllegal(OP_LSHIFT, "OP_LSHIFT")
	regIllegal(OP_RSHIFT, "OP_RSHIFT")

	reg(OP_SIZE, "OP_SIZE", opSize)
	reg(OP_EQUAL, "OP_EQUAL", opEqual)
	reg(OP_EQUALVERIFY, "OP_EQUALVERIFY", opEqualVerify)

	reg(OP_1ADD, "OP_1ADD", opUnaryArith(func(n int64) int64 { return n + 1 }))
	reg(OP_1SUB, "OP_1SUB", opUnaryArith(func(n int64) int64 { return n - 1 }))
	reg(OP_NEGATE, "OP_NEGATE", opUnaryArith(func(n int64) int64 { return -n }))
	reg(OP_ABS, "OP_ABS", opUnaryArith(func(n int64) int64 {
		if n < 0 {
			return -n
		}
		return n
	}))
	reg(OP_NOT, "OP_NOT", opUnaryArith(func(n int64) int64 {
		if n == 0 {
			return 1
		}
		return 0
	}))
	reg(OP_0NOTEQUAL, "OP_0NOTEQUAL", opUnaryArith(func(n int64) int64 {
		if n != 0 {
			return 1
		}
		return 0
	}))
	reg(OP_ADD, "OP_ADD", opBinaryArith(func(a, b int64) int64 { return a + b }))
	reg(OP_SUB, "OP_SUB", opBinaryArith(func(a, b int64) int64 { return a - b }))
	reg(OP_BOOLAND, "OP_BOOLAND", opBinaryBool(func(a, b int64) bool { return a != 0 && b != 0 }))
	reg(OP_BOOLOR, "OP_BOOLOR", opBinaryBool(func(a, b int64) bool { return a != 0 || b != 0 }))
	reg(OP_NUMEQUAL, "OP_NUMEQUAL", opBinaryBool(func(a, b int64) bool { return a == b }))
	reg(OP_NUMEQUALVERIFY, "OP_NUMEQUALVERIFY", opNumEqualVerify)
	reg(OP_NUMNOTEQUAL, "OP_NUMNOTEQUAL", opBinaryBool(func(a, b int64) bool { return a != b }))
	reg(OP_LESSTHAN, "OP_LESSTHAN", opBinaryBool(func(a, b int64) bool { return a < b }))
	reg(OP_GREATERTHAN, "OP_GREATERTHAN", opBinaryBool(func(a, b int64) bool { return a > b }))
	reg(OP_LESSTHANOREQUAL, "OP_LESSTHANOREQUAL", opBinaryBool(func(a, b int64) bool { return a <= b }))
	reg(OP_GREATERTHANOREQUAL, "OP_GREATERTHANOREQUAL", opBinaryBool(func(a, b int64) bool { return a >= b }))
	reg(OP_MIN, "OP_MIN", opBinaryArith(func(a, b int64) int64 {
		if a < b {
			return a
		}
		return b
	}))
	reg(OP_MAX, "OP_MAX", opBinaryArith(func(a, b int64) int64 {
		if a > b {
			return a
		}
		return b
	}))
	reg(OP_WITHIN, "OP_WITHIN", opWithin)

	reg(OP_RIPEMD160, "OP_RIPEMD160", opHashOp(ripemd160Sum))
	reg(OP_SHA1, "OP_SHA1", opHashOp(sha1Sum))
	reg(OP_SHA256, "OP_SHA256", opHashOp(sha256Sum))
	reg(OP_HASH160, "OP_HASH160", opHash160)
	reg(OP_HASH256, "OP_HASH256", opHash256)
	reg(OP_CODESEPARATOR, "OP_CODESEPARATOR", opCodeSeparator)
	reg(OP_CHECKSIG, "OP_CHECKSIG", opCheckSig)
	reg(OP_CHECKSIGVERIFY, "OP_CHECKSIGVERIFY", opCheckSigVerify)
	reg(OP_CHECKMULTISIG, "OP_CHECKMULTISIG", opCheckMultiSig)
	reg(OP_CHECKMULTISIGVERIFY, "OP_CHECKMULTISIGVERIFY", opCheckMultiSigVerify)

	reg(OP_NOP1, "OP_NOP1", opUpgradableNop)
	reg(OP_CHECKLOCKTIMEVERIFY, "OP_CHECKLOCKTIMEVERIFY", opCheckLockTimeVerify)
	reg(OP_CHECKSEQUENCEVERIFY, "OP_CHECKSEQUENCEVERIFY", opCheckSequenceVerify)
	reg(OP_NOP4, "OP_NOP4", opUpgradableNop)
	reg(OP_NOP5, "OP_NOP5", opUpgradableNop)
	reg(OP_NOP6, "OP_NOP6", opUpgradableNop)
	reg(OP_NOP7, "OP_NOP7", opUpgradableNop)
	reg(OP_NOP8, "OP_NOP8", opUpgradableNop)
	reg(OP_NOP9, "OP_NOP9", opUpgradableNop)
	reg(OP_NOP10, "OP_NOP10", opUpgradableNop)
}

// itoa renders a small non-negative int without importing strconv for
// a handful of opcode names.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// --- push / constants ---

func opFalse(e *Engine) error {
	return e.mainStack.Push(nil)
}

func opNum(n int64) func(e *Engine) error {
	return func(e *Engine) error {
		return e.mainStack.PushInt(n)
	}
}

// opReserved dispatches OP_RESERVED/OP_VER/OP_VERIF/OP_VERNOTIF by the
// opcode byte actually encountered: all fail the same way (a reserved
// opcode may never execute), but the description names the opcode
// dispatch saw, not a fixed string — the dispatcher threads the
// current opcode through Engine.curOp for exactly this purpose.
func opReserved(e *Engine) error {
	return scriptErrorf(ErrKindReservedOpcode, "opcode %#x is reserved", e.curOp)
}

func opNop(e *Engine) error {
	return nil
}

// opUpgradableNop backs OP_NOP1 and OP_NOP4-OP_NOP10: opcodes reserved
// for future soft-forks to redefine. With ScriptVerifyDiscourageUpgradableNops
// set, a script relying on one of these still behaving as a no-op is
// rejected outright rather than silently succeeding against a meaning
// it doesn't yet have.
func opUpgradableNop(e *Engine) error {
	if e.flags&ScriptVerifyDiscourageUpgradableNops != 0 {
		return scriptErrorf(ErrKindUnknownOpcode, "opcode %#x is reserved for future upgrades", e.curOp)
	}
	return nil
}

// --- pushdata ---

func (e *Engine) pushNextBytes(n int) error {
	if e.pc+n > len(e.script) {
		return scriptError(ErrKindScriptTooShort, "push operation exceeds script bounds")
	}
	data := e.script[e.pc : e.pc+n]
	e.pc += n
	return e.mainStack.Push(data)
}

// readPushLen reads a little-endian length field of the given byte
// width from the script and advances pc past it.
func (e *Engine) readPushLen(width int) (int, error) {
	if e.pc+width > len(e.script) {
		return 0, scriptError(ErrKindScriptTooShort, "pushdata length field exceeds script bounds")
	}
	var n int
	for i := 0; i < width; i++ {
		n |= int(e.script[e.pc+i]) << uint(8*i)
	}
	e.pc += width
	return n, nil
}

func opPushData1(e *Engine) error {
	n, err := e.readPushLen(1)
	if err != nil {
		return err
	}
	return e.pushNextBytes(n)
}

func opPushData2(e *Engine) error {
	n, err := e.readPushLen(2)
	if err != nil {
		return err
	}
	return e.pushNextBytes(n)
}

func opPushData4(e *Engine) error {
	n, err := e.readPushLen(4)
	if err != nil {
		return err
	}
	return e.pushNextBytes(n)
}

// --- flow control ---

func opIf(e *Engine) error {
	var branch bool
	if e.condStack.allExecuting() {
		top, err := e.mainStack.Pop()
		if err != nil {
			return err
		}
		if e.flags&ScriptVerifyMinimalIf != 0 {
			if len(top) > 1 || (len(top) == 1 && top[0] != 1) {
				return scriptError(ErrKindMinimalEncoding, "OP_IF argument must be empty or {0x01}")
			}
		}
		branch = IsTrue(top)
	}
	e.condStack.push(branch)
	return nil
}

func opNotIf(e *Engine) error {
	var branch bool
	if e.condStack.allExecuting() {
		top, err := e.mainStack.Pop()
		if err != nil {
			return err
		}
		if e.flags&ScriptVerifyMinimalIf != 0 {
			if len(top) > 1 || (len(top) == 1 && top[0] != 1) {
				return scriptError(ErrKindMinimalEncoding, "OP_NOTIF argument must be empty or {0x01}")
			}
		}
		branch = !IsTrue(top)
	}
	e.condStack.push(branch)
	return nil
}

func opElse(e *Engine) error {
	return e.condStack.toggle()
}

func opEndIf(e *Engine) error {
	return e.condStack.pop()
}

func opVerify(e *Engine) error {
	top, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	if !IsTrue(top) {
		return scriptError(ErrKindVerifyFailed, "OP_VERIFY: top of stack is false")
	}
	return nil
}

func opReturn(e *Engine) error {
	return scriptError(ErrKindEarlyReturn, "OP_RETURN executed")
}

// --- stack manipulation ---

func opToAltStack(e *Engine) error {
	v, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	return e.altStack.Push(v)
}

func opFromAltStack(e *Engine) error {
	v, err := e.altStack.Pop()
	if err != nil {
		return scriptError(ErrKindStackUnderflow, "OP_FROMALTSTACK: alt stack empty")
	}
	return e.mainStack.Push(v)
}

func op2Drop(e *Engine) error {
	if _, err := e.mainStack.Pop(); err != nil {
		return err
	}
	_, err := e.mainStack.Pop()
	return err
}

func op2Dup(e *Engine) error {
	b, err := e.mainStack.Peek(0)
	if err != nil {
		return err
	}
	a, err := e.mainStack.Peek(1)
	if err != nil {
		return err
	}
	if err := e.mainStack.Push(a); err != nil {
		return err
	}
	return e.mainStack.Push(b)
}

func op3Dup(e *Engine) error {
	c, err := e.mainStack.Peek(0)
	if err != nil {
		return err
	}
	b, err := e.mainStack.Peek(1)
	if err != nil {
		return err
	}
	a, err := e.mainStack.Peek(2)
	if err != nil {
		return err
	}
	if err := e.mainStack.Push(a); err != nil {
		return err
	}
	if err := e.mainStack.Push(b); err != nil {
		return err
	}
	return e.mainStack.Push(c)
}

func op2Over(e *Engine) error {
	b, err := e.mainStack.Peek(3)
	if err != nil {
		return err
	}
	a, err := e.mainStack.Peek(2)
	if err != nil {
		return err
	}
	if err := e.mainStack.Push(b); err != nil {
		return err
	}
	return e.mainStack.Push(a)
}

// op2Rot implements the corrected OP_2ROT: the bottom pair of the six
// items involved, [x1 x2], rotates past the other two pairs to become
// the new top, i.e. [x1 x2 x3 x4 x5 x6] -> [x3 x4 x5 x6 x1 x2]. This
// fixes the teacher's version, which popped and re-pushed without
// actually moving the bottom pair past the other two.
func op2Rot(e *Engine) error {
	if e.mainStack.Len() < 6 {
		return scriptErrorf(ErrKindStackUnderflow, "OP_2ROT: need 6 items, have %d", e.mainStack.Len())
	}
	x6, _ := e.mainStack.PopN(0)
	x5, _ := e.mainStack.PopN(0)
	x4, _ := e.mainStack.PopN(0)
	x3, _ := e.mainStack.PopN(0)
	x2, _ := e.mainStack.PopN(0)
	x1, _ := e.mainStack.PopN(0)
	for _, v := range [][]byte{x3, x4, x5, x6, x1, x2} {
		if err := e.mainStack.Push(v); err != nil {
			return err
		}
	}
	return nil
}

func op2Swap(e *Engine) error {
	if e.mainStack.Len() < 4 {
		return scriptErrorf(ErrKindStackUnderflow, "OP_2SWAP: need 4 items, have %d", e.mainStack.Len())
	}
	x4, _ := e.mainStack.PopN(0)
	x3, _ := e.mainStack.PopN(0)
	x2, _ := e.mainStack.PopN(0)
	x1, _ := e.mainStack.PopN(0)
	for _, v := range [][]byte{x3, x4, x1, x2} {
		if err := e.mainStack.Push(v); err != nil {
			return err
		}
	}
	return nil
}

func opIfDup(e *Engine) error {
	top, err := e.mainStack.Peek(0)
	if err != nil {
		return err
	}
	if IsTrue(top) {
		return e.mainStack.Push(top)
	}
	return nil
}

func opDepth(e *Engine) error {
	return e.mainStack.PushInt(int64(e.mainStack.Depth()))
}

func opDrop(e *Engine) error {
	_, err := e.mainStack.Pop()
	return err
}

func opDup(e *Engine) error {
	top, err := e.mainStack.Peek(0)
	if err != nil {
		return err
	}
	return e.mainStack.Push(top)
}

// opNip implements OP_NIP as Bitcoin Core actually dispatches it:
// remove the second-from-top item, leaving the top untouched. A
// common source confusion names this "remove top, keep second" — we
// match the former, which is what the reference client executes.
func opNip(e *Engine) error {
	if e.mainStack.Len() < 2 {
		return scriptErrorf(ErrKindStackUnderflow, "OP_NIP: need 2 items, have %d", e.mainStack.Len())
	}
	_, err := e.mainStack.PopN(1)
	return err
}

func opOver(e *Engine) error {
	v, err := e.mainStack.Peek(1)
	if err != nil {
		return err
	}
	return e.mainStack.Push(v)
}

func opPick(e *Engine) error {
	n, err := e.mainStack.PopInt()
	if err != nil {
		return err
	}
	if n < 0 {
		return scriptError(ErrKindInvalidNumber, "OP_PICK: negative index")
	}
	v, err := e.mainStack.Peek(int(n))
	if err != nil {
		return err
	}
	return e.mainStack.Push(v)
}

func opRoll(e *Engine) error {
	n, err := e.mainStack.PopInt()
	if err != nil {
		return err
	}
	if n < 0 {
		return scriptError(ErrKindInvalidNumber, "OP_ROLL: negative index")
	}
	v, err := e.mainStack.PopN(int(n))
	if err != nil {
		return err
	}
	return e.mainStack.Push(v)
}

func opRot(e *Engine) error {
	if e.mainStack.Len() < 3 {
		return scriptErrorf(ErrKindStackUnderflow, "OP_ROT: need 3 items, have %d", e.mainStack.Len())
	}
	v, err := e.mainStack.PopN(2)
	if err != nil {
		return err
	}
	return e.mainStack.Push(v)
}

func opSwap(e *Engine) error {
	if e.mainStack.Len() < 2 {
		return scriptErrorf(ErrKindStackUnderflow, "OP_SWAP: need 2 items, have %d", e.mainStack.Len())
	}
	v, err := e.mainStack.PopN(1)
	if err != nil {
		return err
	}
	return e.mainStack.Push(v)
}

func opTuck(e *Engine) error {
	if e.mainStack.Len() < 2 {
		return scriptErrorf(ErrKindStackUnderflow, "OP_TUCK: need 2 items, have %d", e.mainStack.Len())
	}
	top, err := e.mainStack.Peek(0)
	if err != nil {
		return err
	}
	cp := append([]byte(nil), top...)
	if err := e.mainStack.insertAt(2, cp); err != nil {
		return err
	}
	return nil
}

// --- string ---

func opSize(e *Engine) error {
	top, err := e.mainStack.Peek(0)
	if err != nil {
		return err
	}
	return e.mainStack.PushInt(int64(len(top)))
}

// --- bitwise / equality ---

func opEqual(e *Engine) error {
	b, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	a, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	if bytes.Equal(a, b) {
		return e.mainStack.PushInt(1)
	}
	return e.mainStack.PushInt(0)
}

func opEqualVerify(e *Engine) error {
	if err := opEqual(e); err != nil {
		return err
	}
	return opVerify(e)
}

// --- arithmetic ---

func opUnaryArith(f func(int64) int64) func(e *Engine) error {
	return func(e *Engine) error {
		n, err := e.mainStack.PopInt()
		if err != nil {
			return err
		}
		return e.mainStack.PushInt(f(n))
	}
}

func opBinaryArith(f func(a, b int64) int64) func(e *Engine) error {
	return func(e *Engine) error {
		b, err := e.mainStack.PopInt()
		if err != nil {
			return err
		}
		a, err := e.mainStack.PopInt()
		if err != nil {
			return err
		}
		return e.mainStack.PushInt(f(a, b))
	}
}

func opBinaryBool(f func(a, b int64) bool) func(e *Engine) error {
	return func(e *Engine) error {
		b, err := e.mainStack.PopInt()
		if err != nil {
			return err
		}
		a, err := e.mainStack.PopInt()
		if err != nil {
			return err
		}
		if f(a, b) {
			return e.mainStack.PushInt(1)
		}
		return e.mainStack.PushInt(0)
	}
}

func opNumEqualVerify(e *Engine) error {
	if err := opBinaryBool(func(a, b int64) bool { return a == b })(e); err != nil {
		return err
	}
	return opVerify(e)
}

func opWithin(e *Engine) error {
	max, err := e.mainStack.PopInt()
	if err != nil {
		return err
	}
	min, err := e.mainStack.PopInt()
	if err != nil {
		return err
	}
	x, err := e.mainStack.PopInt()
	if err != nil {
		return err
	}
	if x >= min && x < max {
		return e.mainStack.PushInt(1)
	}
	return e.mainStack.PushInt(0)
}

// --- crypto ---

func opHashOp(hashFn func([]byte) []byte) func(e *Engine) error {
	return func(e *Engine) error {
		data, err := e.mainStack.Pop()
		if err != nil {
			return err
		}
		return e.mainStack.Push(hashFn(data))
	}
}

func opHash160(e *Engine) error {
	data, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	h := hash160(data)
	return e.mainStack.Push(h[:])
}

func opHash256(e *Engine) error {
	data, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	h := hash256(data)
	return e.mainStack.Push(h[:])
}

func opCodeSeparator(e *Engine) error {
	e.lastCodeSeparator = e.pc
	return nil
}

func opCheckSig(e *Engine) error {
	pubKey, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	sig, err := e.mainStack.Pop()
	if err != nil {
		return err
	}
	valid, err := e.checkSignature(sig, pubKey)
	if err != nil {
		return err
	}
	if valid {
		return e.mainStack.PushInt(1)
	}
	return e.mainStack.PushInt(0)
}

func opCheckSigVerify(e *Engine) error {
	if err := opCheckSig(e); err != nil {
		return err
	}
	return opVerify(e)
}

func opCheckMultiSig(e *Engine) error {
	return e.execCheckMultiSig(false)
}

func opCheckMultiSigVerify(e *Engine) error {
	if err := e.execCheckMultiSig(false); err != nil {
		return err
	}
	return opVerify(e)
}

func opCheckLockTimeVerify(e *Engine) error {
	if e.flags&ScriptVerifyCheckLockTimeVerify == 0 {
		return opNop(e)
	}
	top, err := e.mainStack.Peek(0)
	if err != nil {
		return err
	}
	locktime, err := decodeScriptNum(top, e.flags&ScriptVerifyMinimalData != 0, 5)
	if err != nil {
		return err
	}
	if locktime < 0 {
		return scriptError(ErrKindInvalidNumber, "OP_CHECKLOCKTIMEVERIFY: negative locktime")
	}
	if e.tx == nil {
		return nil
	}
	if (locktime < 500000000) != (int64(e.tx.LockTime) < 500000000) {
		return scriptError(ErrKindVerifyFailed, "OP_CHECKLOCKTIMEVERIFY: locktime type mismatch")
	}
	if locktime > int64(e.tx.LockTime) {
		return scriptError(ErrKindVerifyFailed, "OP_CHECKLOCKTIMEVERIFY: locktime not yet reached")
	}
	if e.txIdx < len(e.tx.Inputs) && e.tx.Inputs[e.txIdx].Sequence == 0xffffffff {
		return scriptError(ErrKindVerifyFailed, "OP_CHECKLOCKTIMEVERIFY: input sequence finalized")
	}
	return nil
}

func opCheckSequenceVerify(e *Engine) error {
	if e.flags&ScriptVerifyCheckSequenceVerify == 0 {
		return opNop(e)
	}
	top, err := e.mainStack.Peek(0)
	if err != nil {
		return err
	}
	sequence, err := decodeScriptNum(top, e.flags&ScriptVerifyMinimalData != 0, 5)
	if err != nil {
		return err
	}
	if sequence < 0 {
		return scriptError(ErrKindInvalidNumber, "OP_CHECKSEQUENCEVERIFY: negative sequence")
	}
	const sequenceLockTimeDisableFlag = 1 << 31
	if sequence&sequenceLockTimeDisableFlag != 0 {
		return nil
	}
	if e.tx == nil {
		return nil
	}
	if e.tx.Version < 2 {
		return scriptError(ErrKindVerifyFailed, "OP_CHECKSEQUENCEVERIFY: transaction version too old")
	}
	if e.txIdx >= len(e.tx.Inputs) {
		return scriptError(ErrKindVerifyFailed, "OP_CHECKSEQUENCEVERIFY: input index out of range")
	}
	txSeq := int64(e.tx.Inputs[e.txIdx].Sequence)
	if txSeq&sequenceLockTimeDisableFlag != 0 {
		return scriptError(ErrKindVerifyFailed, "OP_CHECKSEQUENCEVERIFY: input sequence disables relative lock")
	}
	const typeFlag = 1 << 22
	const maskField = 0x0000ffff
	if (sequence&typeFlag) != (txSeq&typeFlag) || (sequence&maskField) > (txSeq&maskField) {
		return scriptError(ErrKindVerifyFailed, "OP_CHECKSEQUENCEVERIFY: relative lock not satisfied")
	}
	return nil
}
