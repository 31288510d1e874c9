package bitcoin

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Alert is the classic bitcoin alert-message payload: a fixed field
// schedule of little-endian signed integers, a length-prefixed vector
// of int32s, a length-prefixed vector of strings, and three trailing
// strings. Grounded on the length-prefixed vector/string wire idiom the
// teacher's p2p.go already uses for its envelope, generalized to the
// full alert field schedule.
type Alert struct {
	Version     int32
	RelayUntil  int64
	Expiration  int64
	ID          int32
	Cancel      int32
	SetCancel   []int32
	MinVer      int32
	MaxVer      int32
	SetSubVer   []string
	Priority    int32
	Comment     string
	StatusBar   string
	Reserved    string
}

// Serialize emits every field in schedule order: little-endian signed
// integers, each vector as a u32 count followed by element encodings,
// each string as a u32 length followed by raw bytes.
func (a *Alert) Serialize() []byte {
	buf := make([]byte, 0, a.HintSerializedLen())

	buf = appendInt32(buf, a.Version)
	buf = appendInt64(buf, a.RelayUntil)
	buf = appendInt64(buf, a.Expiration)
	buf = appendInt32(buf, a.ID)
	buf = appendInt32(buf, a.Cancel)

	buf = appendUint32(buf, uint32(len(a.SetCancel)))
	for _, v := range a.SetCancel {
		buf = appendInt32(buf, v)
	}

	buf = appendInt32(buf, a.MinVer)
	buf = appendInt32(buf, a.MaxVer)

	buf = appendUint32(buf, uint32(len(a.SetSubVer)))
	for _, s := range a.SetSubVer {
		buf = appendString(buf, s)
	}

	buf = appendInt32(buf, a.Priority)
	buf = appendString(buf, a.Comment)
	buf = appendString(buf, a.StatusBar)
	buf = appendString(buf, a.Reserved)

	return buf
}

// DeserializeAlert reads the schedule Serialize emits. A short read or
// EOF mid-field fails with ErrKindTruncated.
func DeserializeAlert(data []byte) (*Alert, error) {
	r := &alertReader{data: data}

	a := &Alert{}
	var err error

	if a.Version, err = r.readInt32(); err != nil {
		return nil, err
	}
	if a.RelayUntil, err = r.readInt64(); err != nil {
		return nil, err
	}
	if a.Expiration, err = r.readInt64(); err != nil {
		return nil, err
	}
	if a.ID, err = r.readInt32(); err != nil {
		return nil, err
	}
	if a.Cancel, err = r.readInt32(); err != nil {
		return nil, err
	}

	cancelCount, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	a.SetCancel = make([]int32, cancelCount)
	for i := range a.SetCancel {
		if a.SetCancel[i], err = r.readInt32(); err != nil {
			return nil, err
		}
	}

	if a.MinVer, err = r.readInt32(); err != nil {
		return nil, err
	}
	if a.MaxVer, err = r.readInt32(); err != nil {
		return nil, err
	}

	subVerCount, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	a.SetSubVer = make([]string, subVerCount)
	for i := range a.SetSubVer {
		if a.SetSubVer[i], err = r.readString(); err != nil {
			return nil, err
		}
	}

	if a.Priority, err = r.readInt32(); err != nil {
		return nil, err
	}
	if a.Comment, err = r.readString(); err != nil {
		return nil, err
	}
	if a.StatusBar, err = r.readString(); err != nil {
		return nil, err
	}
	if a.Reserved, err = r.readString(); err != nil {
		return nil, err
	}

	return a, nil
}

// HintSerializedLen reports the exact byte length Serialize will emit
// for the record's current field values, without serializing it.
func (a *Alert) HintSerializedLen() int {
	n := 4 + 8 + 8 + 4 + 4 // Version, RelayUntil, Expiration, ID, Cancel
	n += 4 + 4*len(a.SetCancel)
	n += 4 + 4 // MinVer, MaxVer
	n += 4
	for _, s := range a.SetSubVer {
		n += 4 + len(s)
	}
	n += 4 // Priority
	n += 4 + len(a.Comment)
	n += 4 + len(a.StatusBar)
	n += 4 + len(a.Reserved)
	return n
}

// Checksum is SHA-256 (not double-SHA-256) over the semantic
// concatenation of field bytes in schedule order, with vector/string
// length prefixes excluded — only element and raw string bytes are
// hashed. This deliberately differs from the double-SHA-256 envelope
// checksum the P2P message header uses; preserved as the historical
// alert-payload behavior rather than unified with it.
func (a *Alert) Checksum() [4]byte {
	h := sha256.New()

	writeInt32(h, a.Version)
	writeInt64(h, a.RelayUntil)
	writeInt64(h, a.Expiration)
	writeInt32(h, a.ID)
	writeInt32(h, a.Cancel)
	for _, v := range a.SetCancel {
		writeInt32(h, v)
	}
	writeInt32(h, a.MinVer)
	writeInt32(h, a.MaxVer)
	for _, s := range a.SetSubVer {
		h.Write([]byte(s))
	}
	writeInt32(h, a.Priority)
	h.Write([]byte(a.Comment))
	h.Write([]byte(a.StatusBar))
	h.Write([]byte(a.Reserved))

	sum := h.Sum(nil)
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

func appendInt32(buf []byte, v int32) []byte {
	return appendUint32(buf, uint32(v))
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendInt64(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func writeInt32(h interface{ Write([]byte) (int, error) }, v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	h.Write(tmp[:])
}

func writeInt64(h interface{ Write([]byte) (int, error) }, v int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	h.Write(tmp[:])
}

// alertReader reads the little-endian field schedule Alert uses,
// tracking an offset into a byte slice it does not own.
type alertReader struct {
	data []byte
	off  int
}

func (r *alertReader) need(n int) error {
	if r.off+n > len(r.data) {
		return scriptErrorf(ErrKindTruncated,
			"alert: need %d bytes at offset %d, have %d", n, r.off, len(r.data))
	}
	return nil
}

func (r *alertReader) readInt32() (int32, error) {
	v, err := r.readUint32()
	return int32(v), err
}

func (r *alertReader) readUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.off : r.off+4])
	r.off += 4
	return v, nil
}

func (r *alertReader) readInt64() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.off : r.off+8])
	r.off += 8
	return int64(v), nil
}

func (r *alertReader) readString() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// String renders a short human-readable summary, used by the CLI demo
// and debug logging.
func (a *Alert) String() string {
	return fmt.Sprintf("Alert{id=%d version=%d cancel=%d priority=%d status=%q}",
		a.ID, a.Version, a.Cancel, a.Priority, a.StatusBar)
}
