package bitcoin

// MaxScriptElementSize is the maximum length, in bytes, of any single
// stack cell (spec.md §3's element-size bound).
const MaxScriptElementSize = 520

// Stack is an ordered sequence of owned byte-array cells, with the top
// of the stack at the highest index. It backs both the engine's main
// stack and its alt stack; the two never share storage.
//
// Grounded on pouria-shahmiri/learn-bitcoin's Stack type, generalized
// with the pop_n/peek(k) operations and the minimal-encoding-aware
// numeric view spec.md §4.1 requires.
type Stack struct {
	cells             [][]byte
	verifyMinimalData bool
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Len returns the number of cells on the stack.
func (s *Stack) Len() int {
	return len(s.cells)
}

// Push appends a copy of data as a new top cell. Fails with
// ElementTooLarge if data exceeds MaxScriptElementSize.
func (s *Stack) Push(data []byte) error {
	if len(data) > MaxScriptElementSize {
		return scriptErrorf(ErrKindElementTooLarge,
			"element size %d exceeds max allowed size %d", len(data), MaxScriptElementSize)
	}
	cell := make([]byte, len(data))
	copy(cell, data)
	s.cells = append(s.cells, cell)
	return nil
}

// PushInt encodes i in minimal sign-magnitude form and pushes it.
func (s *Stack) PushInt(i int64) error {
	return s.Push(encodeScriptNum(i))
}

// Pop removes and returns the top cell, transferring ownership to the
// caller. Fails with StackUnderflow when empty.
func (s *Stack) Pop() ([]byte, error) {
	return s.PopN(0)
}

// PopInt pops the top cell and decodes it per the numeric view. Fails
// with InvalidNumber if the encoding exceeds 4 bytes, or with
// MinimalEncoding if (when the stack's minimal-data flag is set) it is
// non-minimal.
func (s *Stack) PopInt() (int64, error) {
	data, err := s.Pop()
	if err != nil {
		return 0, err
	}
	return decodeScriptNum(data, s.verifyMinimalData, maxNumberBytes)
}

// Peek returns a non-owning reference to the cell k positions from the
// top (0 = top). Fails with StackUnderflow when k >= Len(). The caller
// must not mutate the returned slice, and must not retain it across a
// subsequent mutation of the stack — to place its value back on the
// stack, push a copy via Push, never the borrowed slice itself (see the
// aliasing note in spec.md §9).
func (s *Stack) Peek(k int) ([]byte, error) {
	if k < 0 || k >= len(s.cells) {
		return nil, scriptErrorf(ErrKindStackUnderflow,
			"peek(%d): stack has %d items", k, len(s.cells))
	}
	return s.cells[len(s.cells)-1-k], nil
}

// PeekInt returns the numeric view of the cell k positions from the top
// without removing it.
func (s *Stack) PeekInt(k int) (int64, error) {
	data, err := s.Peek(k)
	if err != nil {
		return 0, err
	}
	return decodeScriptNum(data, s.verifyMinimalData, maxNumberBytes)
}

// PopN removes and returns the cell k positions from the top, shifting
// shallower cells down by one. Fails with StackUnderflow when
// k >= Len().
func (s *Stack) PopN(k int) ([]byte, error) {
	n := len(s.cells)
	if k < 0 || k >= n {
		return nil, scriptErrorf(ErrKindStackUnderflow,
			"pop_n(%d): stack has %d items", k, n)
	}
	idx := n - 1 - k
	cell := s.cells[idx]
	s.cells = append(s.cells[:idx], s.cells[idx+1:]...)
	return cell, nil
}

// insertAt inserts data k positions from the top (0 = push, same as
// depth 0 meaning the new top). Used by OP_TUCK to place a copy below
// the two items it was tucked under.
func (s *Stack) insertAt(k int, data []byte) error {
	if len(data) > MaxScriptElementSize {
		return scriptErrorf(ErrKindElementTooLarge,
			"element size %d exceeds max allowed size %d", len(data), MaxScriptElementSize)
	}
	n := len(s.cells)
	if k < 0 || k > n {
		return scriptErrorf(ErrKindStackUnderflow,
			"insert_at(%d): stack has %d items", k, n)
	}
	idx := n - k
	cell := make([]byte, len(data))
	copy(cell, data)
	s.cells = append(s.cells, nil)
	copy(s.cells[idx+1:], s.cells[idx:])
	s.cells[idx] = cell
	return nil
}

// PushBack re-pushes a cell previously obtained from Pop/PopN. It always
// copies, so the stack never ends up aliasing a slice a caller still
// holds a reference to.
func (s *Stack) PushBack(cell []byte) error {
	return s.Push(cell)
}

// IsTrue reports whether data is nonzero under the numeric view — the
// predicate OP_VERIFY, OP_IF and friends branch on.
func IsTrue(data []byte) bool {
	return !isZeroCell(data)
}

// Depth returns the stack depth (alias of Len, named to match the
// opcode it backs: OP_DEPTH).
func (s *Stack) Depth() int {
	return len(s.cells)
}

// Snapshot returns an independent copy of every cell on the stack,
// bottom first, for inspection by a caller deciding script success.
func (s *Stack) Snapshot() [][]byte {
	out := make([][]byte, len(s.cells))
	for i, c := range s.cells {
		cp := make([]byte, len(c))
		copy(cp, c)
		out[i] = cp
	}
	return out
}
