package io

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	stdio "io"
	"math"
)

// Block file header
var Magic = [3]byte{'I', 'F', 'O'}

const Version uint32 = 0x0101

// ErrBadMagic is returned when decoding data that is not a block file
var ErrBadMagic = errors.New("not a zone block file")

// Record is the common part of every object record: a catalog object id
// plus a transform already converted to file units.
type Record struct {
	ObjectID uint32
	Position [3]float32
	Rotation [4]float32 // x, y, z, w
	Scale    [3]float32
}

type EventRecord struct {
	Record
	QuestTrigger   string
	ScriptFunction string
}

type WarpRecord struct {
	Record
	WarpID uint16
}

type SoundRecord struct {
	Record
	Path  string
	Range float32
}

type EffectRecord struct {
	Record
	Path string
}

// WaterPlane is an axis-aligned water rectangle given by two corners
type WaterPlane struct {
	Start [3]float32
	End   [3]float32
}

// Block holds every record of one zone block, per category. Categories are
// written in the order they are declared here.
type Block struct {
	X, Y      uint32
	WaterSize float32

	Water         []WaterPlane
	Decorations   []Record
	Constructions []Record
	Events        []EventRecord
	Warps         []WarpRecord
	Sounds        []SoundRecord
	Effects       []EffectRecord
	Animated      []Record
}

// FileName returns the block's file name inside a zone directory
func (b *Block) FileName() string {
	return FileName(b.X, b.Y)
}

func FileName(x, y uint32) string {
	return fmt.Sprintf("%d_%d.IFO", x, y)
}

// Len returns the number of records in the block
func (b *Block) Len() int {
	return len(b.Water) + len(b.Decorations) + len(b.Constructions) + len(b.Events) +
		len(b.Warps) + len(b.Sounds) + len(b.Effects) + len(b.Animated)
}

// ── Encode ────────────────────────────────────────────────────────────────────

type encoder struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func (e *encoder) u16(v uint16) {
	if e.err != nil {
		return
	}
	binary.LittleEndian.PutUint16(e.buf[:2], v)
	_, e.err = e.w.Write(e.buf[:2])
}

func (e *encoder) u32(v uint32) {
	if e.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	_, e.err = e.w.Write(e.buf[:4])
}

func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }

func (e *encoder) f32s(vs []float32) {
	for _, v := range vs {
		e.f32(v)
	}
}

func (e *encoder) str(s string) {
	if len(s) > math.MaxUint16 {
		if e.err == nil {
			e.err = fmt.Errorf("string of %d bytes exceeds the u16 length prefix", len(s))
		}
		return
	}
	e.u16(uint16(len(s)))
	if e.err == nil {
		_, e.err = e.w.WriteString(s)
	}
}

func (e *encoder) record(r Record) {
	e.u32(r.ObjectID)
	e.f32s(r.Position[:])
	e.f32s(r.Rotation[:])
	e.f32s(r.Scale[:])
}

func (e *encoder) records(rs []Record) {
	e.u32(uint32(len(rs)))
	for _, r := range rs {
		e.record(r)
	}
}

// Encode writes b in the little-endian block file format
func Encode(w stdio.Writer, b *Block) error {
	e := &encoder{w: bufio.NewWriter(w)}
	if e.err == nil {
		_, e.err = e.w.Write(Magic[:])
	}
	e.u32(Version)
	e.u32(b.X)
	e.u32(b.Y)
	e.f32(b.WaterSize)

	e.u32(uint32(len(b.Water)))
	for _, p := range b.Water {
		e.f32s(p.Start[:])
		e.f32s(p.End[:])
	}

	e.records(b.Decorations)
	e.records(b.Constructions)

	e.u32(uint32(len(b.Events)))
	for _, r := range b.Events {
		e.record(r.Record)
		e.str(r.QuestTrigger)
		e.str(r.ScriptFunction)
	}

	e.u32(uint32(len(b.Warps)))
	for _, r := range b.Warps {
		e.record(r.Record)
		e.u16(r.WarpID)
	}

	e.u32(uint32(len(b.Sounds)))
	for _, r := range b.Sounds {
		e.record(r.Record)
		e.str(r.Path)
		e.f32(r.Range)
	}

	e.u32(uint32(len(b.Effects)))
	for _, r := range b.Effects {
		e.record(r.Record)
		e.str(r.Path)
	}

	e.records(b.Animated)

	if e.err != nil {
		return fmt.Errorf("encode block %s: %w", b.FileName(), e.err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("encode block %s: %w", b.FileName(), err)
	}
	return nil
}

// Marshal returns the encoded bytes of b
func Marshal(b *Block) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ── Decode ────────────────────────────────────────────────────────────────────

// maxCount bounds per-category counts so corrupt input cannot force huge
// allocations
const maxCount = 1 << 20

type decoder struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return d.buf[:n]
	}
	_, d.err = stdio.ReadFull(d.r, d.buf[:n])
	return d.buf[:n]
}

func (d *decoder) u16() uint16  { return binary.LittleEndian.Uint16(d.read(2)) }
func (d *decoder) u32() uint32  { return binary.LittleEndian.Uint32(d.read(4)) }
func (d *decoder) f32() float32 { return math.Float32frombits(d.u32()) }

func (d *decoder) f32s(dst []float32) {
	for i := range dst {
		dst[i] = d.f32()
	}
}

func (d *decoder) str() string {
	n := int(d.u16())
	if d.err != nil {
		return ""
	}
	b := make([]byte, n)
	_, d.err = stdio.ReadFull(d.r, b)
	return string(b)
}

func (d *decoder) count() int {
	n := d.u32()
	if d.err == nil && n > maxCount {
		d.err = fmt.Errorf("record count %d exceeds limit", n)
	}
	if d.err != nil {
		return 0
	}
	return int(n)
}

func (d *decoder) record() Record {
	var r Record
	r.ObjectID = d.u32()
	d.f32s(r.Position[:])
	d.f32s(r.Rotation[:])
	d.f32s(r.Scale[:])
	return r
}

func (d *decoder) records() []Record {
	n := d.count()
	if n == 0 {
		return nil
	}
	rs := make([]Record, n)
	for i := range rs {
		rs[i] = d.record()
	}
	return rs
}

// Decode reads one block written by Encode
func Decode(r stdio.Reader) (*Block, error) {
	d := &decoder{r: bufio.NewReader(r)}

	var magic [3]byte
	if _, err := stdio.ReadFull(d.r, magic[:]); err != nil {
		return nil, fmt.Errorf("decode block header: %w", err)
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}
	if v := d.u32(); d.err == nil && v != Version {
		return nil, fmt.Errorf("decode block: unsupported version %#x", v)
	}

	b := &Block{}
	b.X = d.u32()
	b.Y = d.u32()
	b.WaterSize = d.f32()

	if n := d.count(); n > 0 {
		b.Water = make([]WaterPlane, n)
		for i := range b.Water {
			d.f32s(b.Water[i].Start[:])
			d.f32s(b.Water[i].End[:])
		}
	}

	b.Decorations = d.records()
	b.Constructions = d.records()

	if n := d.count(); n > 0 {
		b.Events = make([]EventRecord, n)
		for i := range b.Events {
			b.Events[i].Record = d.record()
			b.Events[i].QuestTrigger = d.str()
			b.Events[i].ScriptFunction = d.str()
		}
	}

	if n := d.count(); n > 0 {
		b.Warps = make([]WarpRecord, n)
		for i := range b.Warps {
			b.Warps[i].Record = d.record()
			b.Warps[i].WarpID = d.u16()
		}
	}

	if n := d.count(); n > 0 {
		b.Sounds = make([]SoundRecord, n)
		for i := range b.Sounds {
			b.Sounds[i].Record = d.record()
			b.Sounds[i].Path = d.str()
			b.Sounds[i].Range = d.f32()
		}
	}

	if n := d.count(); n > 0 {
		b.Effects = make([]EffectRecord, n)
		for i := range b.Effects {
			b.Effects[i].Record = d.record()
			b.Effects[i].Path = d.str()
		}
	}

	b.Animated = d.records()

	if d.err != nil {
		return nil, fmt.Errorf("decode block: %w", d.err)
	}
	return b, nil
}

// Unmarshal decodes a block from data
func Unmarshal(data []byte) (*Block, error) {
	return Decode(bytes.NewReader(data))
}
