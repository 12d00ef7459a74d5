// Package widgetlist provides a selectable list of variable-height items
// that renders only the window fitting a fixed-height viewport. The window
// is recomputed on every View call — item heights may change between frames
// (selection restyling can change wrapped text), so no offset table is kept.
package widgetlist

import "strings"

// Item is one list entry. Render receives the viewport width and whether
// the item is currently selected; its output is clipped to the height the
// viewport scan assigns the item.
type Item struct {
	Height int
	Render func(width int, selected bool) string
}

// State tracks which item is selected and which item is at the top of the
// viewport. It is owned by the UI and only mutated on its event loop.
type State struct {
	offset   int
	selected int // -1 when nothing is selected
}

func NewState() State {
	return State{selected: -1}
}

// Selected returns the index of the selected item, if any.
func (s *State) Selected() (int, bool) {
	if s.selected < 0 {
		return 0, false
	}
	return s.selected, true
}

// Offset is the index of the first item in the viewport.
func (s *State) Offset() int {
	return s.offset
}

func (s *State) Select(index int) {
	s.selected = index
}

// ClearSelection deselects and scrolls back to the top.
func (s *State) ClearSelection() {
	s.selected = -1
	s.offset = 0
}

// viewHeights determines the viewport window. Starting from the first item
// on screen it accumulates heights until maxHeight is reached; if the
// selected item lands inside that window the offset stands. Otherwise it
// walks backward from the selected item to find the first item that still
// fits, and moves the offset there. With truncate set, the edge item is
// assigned the remaining partial height so the window fills maxHeight
// exactly.
func (s *State) viewHeights(heights []int, maxHeight int, truncate bool) []int {
	if len(heights) == 0 {
		return nil
	}

	selected := s.selected
	if selected < 0 {
		selected = 0
	}
	if selected > len(heights)-1 {
		selected = len(heights) - 1
	}

	// Selection scrolled above the window: pin it to the top.
	if selected < s.offset {
		s.offset = selected
	}

	var view []int
	y := 0
	found := false
	for i := s.offset; i < len(heights); i++ {
		h := heights[i]
		if y+h > maxHeight {
			if truncate {
				view = append(view, maxHeight-y)
			}
			break
		}
		if i == selected {
			found = true
		}
		y += h
		view = append(view, h)
	}
	if found {
		return view
	}

	// Selection is below the window: walk backward from it until the next
	// item no longer fits.
	view = view[:0]
	y = 0
	s.offset = 0
	for i := selected; i >= 0; i-- {
		h := heights[i]
		if y+h >= maxHeight {
			if truncate {
				view = append([]int{maxHeight - y}, view...)
				s.offset = i
			} else {
				s.offset = i + 1
			}
			break
		}
		view = append([]int{h}, view...)
		y += h
	}
	return view
}

// List pairs items with selection state.
type List struct {
	State State
	Items []Item

	// Circular wraps selection from the last item to the first and back.
	Circular bool
	// Truncate renders a partial edge item so the viewport is always full.
	Truncate bool
}

func New(items []Item) List {
	return List{
		State:    NewState(),
		Items:    items,
		Circular: true,
		Truncate: true,
	}
}

// Next selects the following item. With no selection it selects the first.
// No-op on an empty list.
func (l *List) Next() {
	if len(l.Items) == 0 {
		return
	}
	i, ok := l.State.Selected()
	switch {
	case !ok:
		i = 0
	case i >= len(l.Items)-1:
		if l.Circular {
			i = 0
		}
	default:
		i++
	}
	l.State.Select(i)
}

// Previous selects the preceding item. With no selection it selects the
// first. No-op on an empty list.
func (l *List) Previous() {
	if len(l.Items) == 0 {
		return
	}
	i, ok := l.State.Selected()
	switch {
	case !ok:
		i = 0
	case i == 0:
		if l.Circular {
			i = len(l.Items) - 1
		}
	default:
		i--
	}
	l.State.Select(i)
}

// SelectedItem returns the selected item, if any.
func (l *List) SelectedItem() (Item, bool) {
	i, ok := l.State.Selected()
	if !ok || i >= len(l.Items) {
		return Item{}, false
	}
	return l.Items[i], true
}

// View renders the window of items that fits the viewport, top to bottom.
// Each item gets the full width and its assigned height; a truncated item
// is clipped to the remaining rows.
func (l *List) View(width, height int) string {
	if len(l.Items) == 0 || height <= 0 {
		return ""
	}

	heights := make([]int, len(l.Items))
	for i, item := range l.Items {
		heights[i] = item.Height
	}
	view := l.State.viewHeights(heights, height, l.Truncate)

	selected, hasSelection := l.State.Selected()
	rows := make([]string, 0, len(view))
	for i, h := range view {
		idx := l.State.offset + i
		if idx >= len(l.Items) || h <= 0 {
			continue
		}
		content := l.Items[idx].Render(width, hasSelection && idx == selected)
		rows = append(rows, clipHeight(content, h))
	}
	return strings.Join(rows, "\n")
}

// clipHeight pads or trims content to exactly h lines.
func clipHeight(content string, h int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
