// Package snapshot implements a
// deterministic binary dump of a whole GraphStorage to a single file,
// variant-tagged so a persistent snapshot can never be loaded as an
// event graph or vice versa. Save is atomic at the filesystem
// interface: write to a temporary sibling, then rename.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/storage"
	"github.com/chronon-db/chronon/internal/timeindex"
)

// magic identifies a Chronon snapshot file; formatVersion bumps on any
// incompatible change to the section layout below.
var magic = [8]byte{'C', 'H', 'R', 'N', 'S', 'N', 'P', '1'}

const formatVersion uint16 = 1

const (
	variantEvent      uint8 = 0
	variantPersistent uint8 = 1
	endiannessLE      uint8 = 1
)

// Errors returned by Save/Load.
var (
	ErrIO              = errors.New("chronon: snapshot I/O error")
	ErrFormat          = errors.New("chronon: snapshot format error")
	ErrVariantMismatch = errors.New("chronon: snapshot variant mismatch")
)

// Header summarizes a snapshot file's fixed header and top-level
// section sizes without requiring the caller to already know which
// variant it holds. It exists for read-only tooling (cmd/chronon-inspect)
// that describes a snapshot before deciding whether to Load it.
type Header struct {
	FormatVersion uint16
	Variant       storage.GraphVariant
	LayerCount    int
	PropKeyCount  int
	NodeCount     int
	EdgeCount     int
	Seq           uint64
}

// PeekHeader reads and validates path's digest and header, and counts
// its node/edge/layer/prop-key sections, without enforcing a variant
// match the way Load does.
func PeekHeader(path string) (Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Header{}, fmt.Errorf("%w: reading %s: %v", ErrIO, path, err)
	}
	return peekHeader(data)
}

func peekHeader(data []byte) (Header, error) {
	const digestLen = 32
	if len(data) < digestLen {
		return Header{}, fmt.Errorf("%w: file shorter than trailer digest", ErrFormat)
	}
	body, trailer := data[:len(data)-digestLen], data[len(data)-digestLen:]
	want := blake2b.Sum256(body)
	if !bytes.Equal(want[:], trailer) {
		return Header{}, fmt.Errorf("%w: digest mismatch, file is truncated or corrupt", ErrFormat)
	}

	r := &reader{r: bytes.NewReader(body)}
	var gotMagic [8]byte
	r.bytesInto(gotMagic[:])
	if r.err == nil && gotMagic != magic {
		r.err = fmt.Errorf("%w: bad magic at offset 0", ErrFormat)
	}
	version := r.u16()
	variantRaw := r.u8()
	_ = r.u8() // endianness marker

	layerNames := readSection(r, (*reader).strings)
	propKeyNames := readSection(r, (*reader).strings)
	nodes := readSection(r, readNodes)
	edges := readSection(r, readEdges)
	_ = readSection(r, readProps)
	seq := r.u64()

	if r.err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrFormat, r.err)
	}

	variant := storage.VariantEvent
	if variantRaw == variantPersistent {
		variant = storage.VariantPersistent
	}
	return Header{
		FormatVersion: version,
		Variant:       variant,
		LayerCount:    len(layerNames),
		PropKeyCount:  len(propKeyNames),
		NodeCount:     len(nodes),
		EdgeCount:     len(edges),
		Seq:           seq,
	}, nil
}

func variantTag(v storage.GraphVariant) uint8 {
	if v == storage.VariantPersistent {
		return variantPersistent
	}
	return variantEvent
}

// Save writes g's full state to path, atomically: the body is built in
// memory, written to a temporary sibling file, fsynced, then renamed
// into place so a crash mid-write never leaves a truncated file at
// path.
func Save(g *storage.GraphStorage, path string) error {
	body, err := encode(g)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrFormat, path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating directory %s: %v", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %v", ErrIO, path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", ErrIO, tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing %s: %v", ErrIO, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrIO, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming %s to %s: %v", ErrIO, tmpPath, path, err)
	}
	return nil
}

// Load reads a snapshot from path and reconstructs a GraphStorage of
// exactly wantVariant, failing with ErrVariantMismatch if the file was
// saved from the other variant.
func Load(path string, wantVariant storage.GraphVariant) (*storage.GraphStorage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, path, err)
	}
	return decode(data, wantVariant)
}

// encode serializes g: an 8+2+1+1 byte
// header, length-prefixed sections in fixed order, and a trailing
// blake2b-256 digest over everything written before it so Load can
// detect truncation/corruption before trying to interpret a malformed
// section as the variant tag.
func encode(g *storage.GraphStorage) ([]byte, error) {
	var buf bytes.Buffer
	w := &writer{w: &buf}

	w.bytes(magic[:])
	w.u16(formatVersion)
	w.u8(variantTag(g.Variant()))
	w.u8(endiannessLE)

	w.section(func(w *writer) { w.strings(g.LayerNames()) })
	w.section(func(w *writer) { w.strings(g.PropKeyNames()) })
	w.section(func(w *writer) { writeNodes(w, g.DumpNodes()) })
	w.section(func(w *writer) { writeEdges(w, g.DumpEdges()) })
	w.section(func(w *writer) { writeProps(w, g.GraphProperties()) })
	w.u64(g.Seq())

	if w.err != nil {
		return nil, w.err
	}

	digest := blake2b.Sum256(buf.Bytes())
	buf.Write(digest[:])
	return buf.Bytes(), nil
}

func decode(data []byte, wantVariant storage.GraphVariant) (*storage.GraphStorage, error) {
	const digestLen = 32
	if len(data) < digestLen {
		return nil, fmt.Errorf("%w: file shorter than trailer digest", ErrFormat)
	}
	body, trailer := data[:len(data)-digestLen], data[len(data)-digestLen:]
	want := blake2b.Sum256(body)
	if !bytes.Equal(want[:], trailer) {
		return nil, fmt.Errorf("%w: digest mismatch, file is truncated or corrupt", ErrFormat)
	}

	r := &reader{r: bytes.NewReader(body)}

	var gotMagic [8]byte
	r.bytesInto(gotMagic[:])
	if r.err == nil && gotMagic != magic {
		r.err = fmt.Errorf("%w: bad magic at offset 0", ErrFormat)
	}
	version := r.u16()
	if r.err == nil && version != formatVersion {
		r.err = fmt.Errorf("%w: unsupported format version %d", ErrFormat, version)
	}
	variant := r.u8()
	_ = r.u8() // endianness marker: this codec only ever writes little-endian

	wantTag := variantTag(wantVariant)
	if r.err == nil && variant != wantTag {
		return nil, fmt.Errorf("%w: snapshot variant %d does not match requested variant %d", ErrVariantMismatch, variant, wantTag)
	}

	layerNames := readSection(r, (*reader).strings)
	propKeyNames := readSection(r, (*reader).strings)
	nodes := readSection(r, readNodes)
	edges := readSection(r, readEdges)
	graphProps := readSection(r, readProps)
	seq := r.u64()

	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, r.err)
	}

	variantVal := storage.VariantEvent
	if variant == variantPersistent {
		variantVal = storage.VariantPersistent
	}
	return storage.LoadSnapshot(variantVal, layerNames, propKeyNames, nodes, edges, graphProps, seq), nil
}

func writeNodes(w *writer, nodes []storage.NodeSnapshot) {
	w.u32(uint32(len(nodes)))
	for _, n := range nodes {
		writeExternalID(w, n.External)
		w.u8(boolByte(n.HasType))
		w.u32(n.NodeType)
		writeEntries(w, n.Timestamps)
		writePropMap(w, n.ConstProps)
		writeTemporalPropMap(w, n.TemporalProps)
	}
}

func readNodes(r *reader) []storage.NodeSnapshot {
	n := r.u32()
	out := make([]storage.NodeSnapshot, n)
	for i := range out {
		ext := readExternalID(r)
		hasType := r.u8() != 0
		nodeType := r.u32()
		out[i] = storage.NodeSnapshot{
			External:      ext,
			NodeType:      nodeType,
			HasType:       hasType,
			Timestamps:    readEntries(r),
			ConstProps:    readPropMap(r),
			TemporalProps: readTemporalPropMap(r),
		}
	}
	return out
}

func writeEdges(w *writer, edges []storage.EdgeSnapshot) {
	w.u32(uint32(len(edges)))
	for _, e := range edges {
		w.u64(uint64(e.Src))
		w.u64(uint64(e.Dst))
		w.u32(uint32(len(e.Layers)))
		for _, l := range e.Layers {
			w.u32(uint32(l.Layer))
			writeEntries(w, l.Additions)
			writeEntries(w, l.Deletions)
			writePropMap(w, l.ConstProps)
			writeTemporalPropMap(w, l.TemporalProps)
		}
	}
}

func readEdges(r *reader) []storage.EdgeSnapshot {
	n := r.u32()
	out := make([]storage.EdgeSnapshot, n)
	for i := range out {
		src := storage.VID(r.u64())
		dst := storage.VID(r.u64())
		layerCount := r.u32()
		layerSnaps := make([]storage.EdgeLayerSnapshot, layerCount)
		for j := range layerSnaps {
			layerSnaps[j] = storage.EdgeLayerSnapshot{
				Layer:         layers.ID(r.u32()),
				Additions:     readEntries(r),
				Deletions:     readEntries(r),
				ConstProps:    readPropMap(r),
				TemporalProps: readTemporalPropMap(r),
			}
		}
		out[i] = storage.EdgeSnapshot{Src: src, Dst: dst, Layers: layerSnaps}
	}
	return out
}

func writeProps(w *writer, props map[prop.ID]prop.Value) { writePropMap(w, props) }
func readProps(r *reader) map[prop.ID]prop.Value         { return readPropMap(r) }

func writeEntries(w *writer, entries []timeindex.Entry) {
	w.u32(uint32(len(entries)))
	for _, e := range entries {
		w.i64(e.T)
		w.u64(e.Seq)
	}
}

func readEntries(r *reader) []timeindex.Entry {
	n := r.u32()
	out := make([]timeindex.Entry, n)
	for i := range out {
		out[i] = timeindex.Entry{T: r.i64(), Seq: r.u64()}
	}
	return out
}

func writePropMap(w *writer, m map[prop.ID]prop.Value) {
	keys := sortedKeys(m)
	w.u32(uint32(len(keys)))
	for _, k := range keys {
		w.u32(uint32(k))
		writeValue(w, m[k])
	}
}

func readPropMap(r *reader) map[prop.ID]prop.Value {
	n := r.u32()
	out := make(map[prop.ID]prop.Value, n)
	for i := uint32(0); i < n; i++ {
		k := prop.ID(r.u32())
		out[k] = readValue(r)
	}
	return out
}

func writeTemporalPropMap(w *writer, m map[prop.ID][]storage.TimeValueEntry) {
	keys := sortedKeys(m)
	w.u32(uint32(len(keys)))
	for _, k := range keys {
		w.u32(uint32(k))
		writes := m[k]
		w.u32(uint32(len(writes)))
		for _, tv := range writes {
			w.i64(tv.At.T)
			w.u64(tv.At.Seq)
			writeValue(w, tv.Val)
		}
	}
}

func readTemporalPropMap(r *reader) map[prop.ID][]storage.TimeValueEntry {
	n := r.u32()
	out := make(map[prop.ID][]storage.TimeValueEntry, n)
	for i := uint32(0); i < n; i++ {
		k := prop.ID(r.u32())
		count := r.u32()
		writes := make([]storage.TimeValueEntry, count)
		for j := range writes {
			t := r.i64()
			seq := r.u64()
			writes[j] = storage.TimeValueEntry{At: timeindex.Entry{T: t, Seq: seq}, Val: readValue(r)}
		}
		out[k] = writes
	}
	return out
}

func writeExternalID(w *writer, ext storage.ExternalID) {
	if i, ok := ext.AsInt(); ok {
		w.u8(0)
		w.i64(i)
		return
	}
	s, _ := ext.AsStr()
	w.u8(1)
	w.str(s)
}

func readExternalID(r *reader) storage.ExternalID {
	tag := r.u8()
	if tag == 0 {
		return storage.IntID(r.i64())
	}
	return storage.StrID(r.str())
}

const (
	valBool uint8 = iota
	valI64
	valU64
	valF64
	valStr
	valList
	valMap
)

func writeValue(w *writer, v prop.Value) {
	switch v.Kind() {
	case prop.KindBool:
		b, _ := v.AsBool()
		w.u8(valBool)
		w.u8(boolByte(b))
	case prop.KindI64:
		i, _ := v.AsI64()
		w.u8(valI64)
		w.i64(i)
	case prop.KindU64:
		u, _ := v.AsU64()
		w.u8(valU64)
		w.u64(u)
	case prop.KindF64:
		f, _ := v.AsF64()
		w.u8(valF64)
		w.f64(f)
	case prop.KindStr:
		s, _ := v.AsStr()
		w.u8(valStr)
		w.str(s)
	case prop.KindList:
		list, _ := v.AsList()
		w.u8(valList)
		w.u32(uint32(len(list)))
		for _, e := range list {
			writeValue(w, e)
		}
	case prop.KindMap:
		m, _ := v.AsMap()
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w.u8(valMap)
		w.u32(uint32(len(keys)))
		for _, k := range keys {
			w.str(k)
			writeValue(w, m[k])
		}
	default:
		if w.err == nil {
			w.err = fmt.Errorf("%w: unknown property value kind %v", ErrFormat, v.Kind())
		}
	}
}

func readValue(r *reader) prop.Value {
	tag := r.u8()
	switch tag {
	case valBool:
		return prop.Bool(r.u8() != 0)
	case valI64:
		return prop.I64(r.i64())
	case valU64:
		return prop.U64(r.u64())
	case valF64:
		return prop.F64(r.f64())
	case valStr:
		return prop.Str(r.str())
	case valList:
		n := r.u32()
		out := make([]prop.Value, n)
		for i := range out {
			out[i] = readValue(r)
		}
		return prop.List(out)
	case valMap:
		n := r.u32()
		out := make(map[string]prop.Value, n)
		for i := uint32(0); i < n; i++ {
			k := r.str()
			out[k] = readValue(r)
		}
		return prop.Map(out)
	default:
		if r.err == nil {
			r.err = fmt.Errorf("%w: unknown property value tag %d", ErrFormat, tag)
		}
		return prop.Value{}
	}
}

// writer accumulates encoding errors rather than threading err through
// every call site (the section/value writers above stay simple as a
// result); Save/encode check w.err once at the end.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) bytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *writer) u8(v uint8)  { w.bytes([]byte{v}) }
func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.bytes(b[:])
}
func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.bytes(b[:])
}
func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.bytes(b[:])
}
func (w *writer) i64(v int64)   { w.u64(uint64(v)) }
func (w *writer) f64(v float64) { w.u64(math.Float64bits(v)) }

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.bytes([]byte(s))
}

func (w *writer) strings(ss []string) {
	w.u32(uint32(len(ss)))
	for _, s := range ss {
		w.str(s)
	}
}

// section writes fn's output length-prefixed, buffering the body so
// its length is known before the prefix is written.
func (w *writer) section(fn func(*writer)) {
	if w.err != nil {
		return
	}
	var buf bytes.Buffer
	inner := &writer{w: &buf}
	fn(inner)
	if inner.err != nil {
		w.err = inner.err
		return
	}
	w.u32(uint32(buf.Len()))
	w.bytes(buf.Bytes())
}

type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) bytesInto(b []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.r, b)
}

func (r *reader) u8() uint8 {
	var b [1]byte
	r.bytesInto(b[:])
	return b[0]
}
func (r *reader) u16() uint16 {
	var b [2]byte
	r.bytesInto(b[:])
	return binary.LittleEndian.Uint16(b[:])
}
func (r *reader) u32() uint32 {
	var b [4]byte
	r.bytesInto(b[:])
	return binary.LittleEndian.Uint32(b[:])
}
func (r *reader) u64() uint64 {
	var b [8]byte
	r.bytesInto(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
func (r *reader) i64() int64   { return int64(r.u64()) }
func (r *reader) f64() float64 { return math.Float64frombits(r.u64()) }

func (r *reader) str() string {
	n := r.u32()
	b := make([]byte, n)
	r.bytesInto(b)
	return string(b)
}

func (r *reader) strings() []string {
	n := r.u32()
	out := make([]string, n)
	for i := range out {
		out[i] = r.str()
	}
	return out
}

// readSection reads a length-prefixed section and decodes it with fn,
// bounding fn to exactly the section's own bytes so a malformed inner
// section cannot run past its declared length into the next one. On a
// pending or fresh error it returns fn's zero value; the caller checks
// r.err once after all sections are read.
func readSection[T any](r *reader, fn func(*reader) T) T {
	var zero T
	if r.err != nil {
		return zero
	}
	n := r.u32()
	if r.err != nil {
		return zero
	}
	body := make([]byte, n)
	r.bytesInto(body)
	if r.err != nil {
		return zero
	}
	inner := &reader{r: bytes.NewReader(body)}
	v := fn(inner)
	if inner.err != nil {
		r.err = inner.err
	}
	return v
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// sortedKeys returns a map's prop.ID keys in ascending order, so the
// codec's output is deterministic regardless of map iteration order.
func sortedKeys[V any](m map[prop.ID]V) []prop.ID {
	out := make([]prop.ID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
