// package selection implements multi-select over an ordered list: plain, ctrl (toggle) and shift (range) clicks
// around an anchor index.
package selection

import (
	"slices"

	"github.com/samber/lo"
)

// NoAnchor marks an empty anchor.
const NoAnchor = -1

// Modifiers are the keys held during a click. Ctrl also stands for Cmd/Meta.
type Modifiers struct {
	Ctrl  bool
	Shift bool
}

var (
	Plain     = Modifiers{}
	Ctrl      = Modifiers{Ctrl: true}
	Shift     = Modifiers{Shift: true}
	CtrlShift = Modifiers{Ctrl: true, Shift: true}
)

// Model is the selection state of one list context.
//
// Invariants: every selected id is a member of the current sequence, and the anchor is
// either [NoAnchor] or a valid index into the sequence.
type Model[K comparable] struct {
	seq      []K
	selected []K
	index    map[K]struct{}
	anchor   int
}

// New creates a selection over seq.
func New[K comparable](seq []K) *Model[K] {
	m := &Model[K]{}
	m.Load(seq)
	return m
}

// Load replaces the sequence. The selection is cleared and the anchor reset.
func (m *Model[K]) Load(seq []K) {
	m.seq = slices.Clone(seq)
	m.Clear()
}

// Sequence returns the current sequence.
func (m *Model[K]) Sequence() []K {
	return slices.Clone(m.seq)
}

// Clear empties the selection and resets the anchor.
func (m *Model[K]) Clear() {
	m.selected = nil
	m.index = map[K]struct{}{}
	m.anchor = NoAnchor
}

// Click applies a click on id at index with mods.
//
// It reports whether the state changed; a click whose index is out of range or whose
// id does not match the sequence at index is ignored.
func (m *Model[K]) Click(mods Modifiers, id K, index int) bool {
	if index < 0 || index >= len(m.seq) || m.seq[index] != id {
		return false
	}

	switch {
	case mods.Shift && m.anchor != NoAnchor:
		if !mods.Ctrl {
			m.reset()
		}
		from, to := min(m.anchor, index), max(m.anchor, index)
		for _, item := range m.seq[from : to+1] {
			m.add(item)
		}
	case mods.Ctrl:
		if m.Selected(id) {
			m.remove(id)
		} else {
			m.add(id)
		}
	default:
		m.reset()
		m.add(id)
	}

	m.anchor = index
	return true
}

// Toggle flips id at index without moving other members; it is a ctrl-click.
func (m *Model[K]) Toggle(id K, index int) bool {
	return m.Click(Ctrl, id, index)
}

// SelectAll selects the whole sequence in order. The anchor is left alone.
func (m *Model[K]) SelectAll() {
	m.reset()
	for _, id := range m.seq {
		m.add(id)
	}
}

// Selected reports whether id is selected.
func (m *Model[K]) Selected(id K) bool {
	_, ok := m.index[id]
	return ok
}

// IDs returns the selection in the order items were selected.
func (m *Model[K]) IDs() []K {
	return slices.Clone(m.selected)
}

// Ordered returns the selection in sequence order.
func (m *Model[K]) Ordered() []K {
	return lo.Filter(m.seq, func(id K, _ int) bool { return m.Selected(id) })
}

// Len is the selection size.
func (m *Model[K]) Len() int {
	return len(m.selected)
}

// Empty reports an empty selection.
func (m *Model[K]) Empty() bool {
	return len(m.selected) == 0
}

// Anchor returns the range pivot or [NoAnchor].
func (m *Model[K]) Anchor() int {
	return m.anchor
}

// AllSelected reports whether every item of a non-empty sequence is selected.
func (m *Model[K]) AllSelected() bool {
	return len(m.seq) > 0 && len(m.selected) == len(lo.Uniq(m.seq))
}

func (m *Model[K]) reset() {
	m.selected = nil
	m.index = map[K]struct{}{}
}

func (m *Model[K]) add(id K) {
	if m.Selected(id) {
		return
	}
	m.index[id] = struct{}{}
	m.selected = append(m.selected, id)
}

func (m *Model[K]) remove(id K) {
	delete(m.index, id)
	m.selected = lo.Without(m.selected, id)
}
