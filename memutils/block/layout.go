// Package block implements the boundary-tagged block layout of an explicit free-list heap
// and the intrusive lists that thread through it.
//
// Every block in a region is laid out as
//
//	[Header 32 bytes][payload][Footer 8 bytes]
//
// The header holds the payload size, the state tag, and the next/prev links of whichever
// List currently owns the block. The footer repeats the payload size so that the block
// physically below any block can be found from its header. Blocks are named by Handle, the
// byte offset of their header within the region; Layout is the only code that touches the
// raw bytes.
package block

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the number of bytes in front of every payload
	HeaderSize = 32
	// FooterSize is the number of bytes behind every payload
	FooterSize = 8
	// Overhead is the fixed cost of one block on top of its payload
	Overhead = HeaderSize + FooterSize

	sizeOffset  = 0
	stateOffset = 8
	nextOffset  = 16
	prevOffset  = 24
)

// Handle is the offset of a block header within a region. The negative values are reserved
// for the "no block" result and for the two sentinel nodes of a List.
type Handle int

const (
	HandleNone  Handle = -1
	HandleBegin Handle = -2
	HandleEnd   Handle = -3
)

func (h Handle) String() string {
	switch h {
	case HandleNone:
		return "None"
	case HandleBegin:
		return "Begin"
	case HandleEnd:
		return "End"
	}
	return fmt.Sprintf("%#x", int(h))
}

// Layout is a typed view over region memory
type Layout struct {
	data []byte
}

// NewLayout creates a Layout over data. The Layout does not copy data; writes go straight
// to the region.
func NewLayout(data []byte) *Layout {
	return &Layout{data: data}
}

// Len returns the size of the underlying region in bytes
func (l *Layout) Len() int { return len(l.data) }

// Contains returns true if a block header and footer starting at h could fit in the region
func (l *Layout) Contains(h Handle) bool {
	return h >= 0 && int(h)+Overhead <= len(l.data)
}

func (l *Layout) Size(h Handle) int {
	return int(binary.LittleEndian.Uint64(l.data[int(h)+sizeOffset:]))
}

func (l *Layout) SetSize(h Handle, size int) {
	binary.LittleEndian.PutUint64(l.data[int(h)+sizeOffset:], uint64(size))
}

func (l *Layout) State(h Handle) State {
	return State(l.data[int(h)+stateOffset])
}

func (l *Layout) SetState(h Handle, state State) {
	l.data[int(h)+stateOffset] = byte(state)
}

func (l *Layout) Next(h Handle) Handle {
	return Handle(int64(binary.LittleEndian.Uint64(l.data[int(h)+nextOffset:])))
}

func (l *Layout) SetNext(h Handle, next Handle) {
	binary.LittleEndian.PutUint64(l.data[int(h)+nextOffset:], uint64(int64(next)))
}

func (l *Layout) Prev(h Handle) Handle {
	return Handle(int64(binary.LittleEndian.Uint64(l.data[int(h)+prevOffset:])))
}

func (l *Layout) SetPrev(h Handle, prev Handle) {
	binary.LittleEndian.PutUint64(l.data[int(h)+prevOffset:], uint64(int64(prev)))
}

// FootSize reads the payload size stored in the footer at offset foot
func (l *Layout) FootSize(foot int) int {
	return int(binary.LittleEndian.Uint64(l.data[foot:]))
}

// SetFootSize writes the payload size stored in the footer at offset foot
func (l *Layout) SetFootSize(foot int, size int) {
	binary.LittleEndian.PutUint64(l.data[foot:], uint64(size))
}

// Format writes a complete header size, state and footer for a block of the given payload
// size at h. Links are left untouched.
func (l *Layout) Format(h Handle, size int, state State) {
	l.SetSize(h, size)
	l.SetState(h, state)
	l.SetFootSize(l.FooterOf(h), size)
}

// FooterOf returns the offset of the footer belonging to the header at h, using the size
// recorded in that header
func (l *Layout) FooterOf(h Handle) int {
	return int(h) + HeaderSize + l.Size(h)
}

// HeaderOf returns the header belonging to the footer at offset foot, using the size recorded
// in that footer
func (l *Layout) HeaderOf(foot int) Handle {
	return Handle(foot - l.FootSize(foot) - HeaderSize)
}

// Above returns the block physically following h, or HandleNone if h is the last block in
// the region. List links are not consulted.
func (l *Layout) Above(h Handle) Handle {
	higher := int(h) + l.Size(h) + Overhead
	if higher >= len(l.data) {
		return HandleNone
	}
	return Handle(higher)
}

// Below returns the block physically preceding h, or HandleNone if h is the first block in
// the region. The preceding block is located through its footer, which sits directly under
// h's header.
func (l *Layout) Below(h Handle) Handle {
	if h == 0 {
		return HandleNone
	}
	return l.HeaderOf(int(h) - FooterSize)
}

// PayloadOffset returns the offset of the first usable byte of h
func (l *Layout) PayloadOffset(h Handle) int {
	return int(h) + HeaderSize
}

// HandleForPayload is the inverse of PayloadOffset
func (l *Layout) HandleForPayload(offset int) Handle {
	return Handle(offset - HeaderSize)
}

// Payload returns the usable bytes of h. The slice's capacity ends at the footer.
func (l *Layout) Payload(h Handle) []byte {
	start := l.PayloadOffset(h)
	end := start + l.Size(h)
	return l.data[start:end:end]
}
