package block

import (
	"fmt"

	"github.com/pkg/errors"
)

// List is an intrusive doubly linked list of blocks. The links live in the block headers;
// the List itself only holds the links of its two sentinels, which are addressed by the
// fixed handles HandleBegin and HandleEnd and never live in region memory.
//
// Blocks are always inserted at the front. Removal uses the block's own links and is O(1),
// so removing a block that is not in this list corrupts both lists involved.
type List struct {
	layout *Layout

	// begin.next and end.prev
	head Handle
	tail Handle

	length int
	bytes  int
}

// Init empties the list and binds it to the region described by layout
func (l *List) Init(layout *Layout) {
	l.layout = layout
	l.head = HandleEnd
	l.tail = HandleBegin
	l.length = 0
	l.bytes = 0
}

// Len returns the number of blocks in the list
func (l *List) Len() int { return l.length }

// Bytes returns the sum of size plus Overhead over every block in the list
func (l *List) Bytes() int { return l.bytes }

// Front returns the first block of the list, or HandleEnd if the list is empty
func (l *List) Front() Handle { return l.head }

// Next returns the block following h in the list, or HandleEnd if h is the last block
func (l *List) Next(h Handle) Handle {
	return l.next(h)
}

func (l *List) next(h Handle) Handle {
	if h == HandleBegin {
		return l.head
	}
	return l.layout.Next(h)
}

func (l *List) prev(h Handle) Handle {
	if h == HandleEnd {
		return l.tail
	}
	return l.layout.Prev(h)
}

func (l *List) setNext(h Handle, next Handle) {
	if h == HandleBegin {
		l.head = next
		return
	}
	l.layout.SetNext(h, next)
}

func (l *List) setPrev(h Handle, prev Handle) {
	if h == HandleEnd {
		l.tail = prev
		return
	}
	l.layout.SetPrev(h, prev)
}

func (l *List) state(h Handle) State {
	switch h {
	case HandleBegin:
		return StateListBegin
	case HandleEnd:
		return StateListEnd
	}
	return l.layout.State(h)
}

// AddFront links h directly after the begin sentinel
func (l *List) AddFront(h Handle) {
	if !l.layout.Contains(h) {
		panic(fmt.Sprintf("cannot add block %s to a list: it is not a block in this region", h))
	}

	next := l.head
	l.layout.SetNext(h, next)
	l.layout.SetPrev(h, HandleBegin)
	l.setPrev(next, h)
	l.setNext(HandleBegin, h)

	l.length++
	l.bytes += l.layout.Size(h) + Overhead
}

// Remove unlinks h from the list. h must currently be linked into this list.
func (l *List) Remove(h Handle) {
	if !l.layout.Contains(h) {
		panic(fmt.Sprintf("cannot remove block %s from a list: it is not a block in this region", h))
	}
	if l.length == 0 {
		panic(fmt.Sprintf("cannot remove block %s from an empty list", h))
	}

	prev := l.layout.Prev(h)
	next := l.layout.Next(h)
	l.setNext(prev, next)
	l.setPrev(next, prev)

	l.layout.SetNext(h, HandleNone)
	l.layout.SetPrev(h, HandleNone)

	l.length--
	l.bytes -= l.layout.Size(h) + Overhead
}

// Visit calls visit for each block in list order, stopping at the first error
func (l *List) Visit(visit func(index int, h Handle) error) error {
	index := 0
	for h := l.head; h != HandleEnd; h = l.layout.Next(h) {
		err := visit(index, h)
		if err != nil {
			return err
		}
		index++
	}

	return nil
}

// Validate walks the list and verifies that the links are symmetric, that every member is
// tagged with the provided state, and that the length and byte counters match the members
func (l *List) Validate(state State) error {
	var count, bytes int
	prev := HandleBegin
	for h := l.head; h != HandleEnd; h = l.layout.Next(h) {
		if count >= l.length {
			return errors.Errorf("list claims %d blocks but walking it reaches more, the links may be cyclic", l.length)
		}
		if !l.layout.Contains(h) {
			return errors.Errorf("block %d in the list has handle %s, which is outside the region", count, h)
		}
		if l.prev(h) != prev {
			return errors.Errorf("block %s lists %s as its previous block, but it follows %s", h, l.prev(h), prev)
		}
		if l.state(h) != state {
			return errors.Errorf("block %s is in a list of %s blocks but is tagged %s", h, state, l.state(h))
		}

		count++
		bytes += l.layout.Size(h) + Overhead
		prev = h
	}

	if l.tail != prev {
		return errors.Errorf("the list ends at block %s, but its end sentinel points back at %s", prev, l.tail)
	}
	if count != l.length {
		return errors.Errorf("the list claims %d blocks, but %d were found", l.length, count)
	}
	if bytes != l.bytes {
		return errors.Errorf("the list claims %d bytes, but its blocks add up to %d", l.bytes, bytes)
	}

	return nil
}
