// Package cursor provides pointer images for the backend's seats.
//
// Cursors come from two places. Shapes are looked up by name in a
// cursor theme, falling back through a list of alternative names for
// each shape. Cursors of foreign clients are identified by serial and
// decoded on demand through a Decoder, with the results tracked per
// seat by a Tracker.
package cursor

// Shape is one of a fixed set of standard cursor shapes.
type Shape int

const (
	Arrow Shape = iota
	UpArrow
	Cross
	Wait
	IBeam
	SizeVer
	SizeHor
	SizeBDiag
	SizeFDiag
	SizeAll
	Blank
	SplitV
	SplitH
	PointingHand
	Forbidden
	WhatsThis
	Busy
	OpenHand
	ClosedHand
	DragCopy
	DragMove
	DragLink

	shapeCount
)

// shapes maps each shape to its name followed by the names under
// which themes may provide it, in order of preference.
var shapes = [shapeCount]struct {
	name  string
	theme []string
}{
	Arrow:        {"arrow", []string{"left_ptr", "default", "arrow", "top_left_arrow", "left_arrow"}},
	UpArrow:      {"up-arrow", []string{"up_arrow", "center_ptr", "sb_up_arrow"}},
	Cross:        {"cross", []string{"cross", "crosshair", "diamond_cross", "cross_reverse"}},
	Wait:         {"wait", []string{"wait", "watch", "xterm_wait", "08e8e1c95fe2fc01f976f1e063a24ccd"}},
	IBeam:        {"ibeam", []string{"ibeam", "text", "xterm"}},
	SizeVer:      {"size-ver", []string{"size_ver", "ns-resize", "v_double_arrow", "00008160000006810000408080010102"}},
	SizeHor:      {"size-hor", []string{"size_hor", "ew-resize", "h_double_arrow", "028006030e0e7ebffc7f7070c0600140"}},
	SizeBDiag:    {"size-bdiag", []string{"size_bdiag", "nesw-resize", "50585d75b494802d0151028115016902", "fcf1c3c7cd4491d801f1e1c78f100000"}},
	SizeFDiag:    {"size-fdiag", []string{"size_fdiag", "nwse-resize", "38c5dff7c7b8962045400281044508d2", "c7088f0f3e6c8088236ef8e1e3e70000"}},
	SizeAll:      {"size-all", []string{"size_all", "fleur", "all-scroll"}},
	Blank:        {"blank", []string{"blank"}},
	SplitV:       {"split-v", []string{"split_v", "row-resize", "sb_v_double_arrow", "2870a09082c103050810ffdffffe0204", "c07385c7190e701020ff7ffffd08103c"}},
	SplitH:       {"split-h", []string{"split_h", "col-resize", "sb_h_double_arrow", "043a9f68147c53184671403ffa811cc5", "14fef782d02440884392942c11205230"}},
	PointingHand: {"pointing-hand", []string{"pointing_hand", "pointer", "hand1", "hand2", "e29285e634086352946a0e7090d73106", "9d800788f1b08800ae810202380a0822"}},
	Forbidden:    {"forbidden", []string{"forbidden", "not-allowed", "crossed_circle", "circle", "03b6e0fcb3499374a867c041f52298f0"}},
	WhatsThis:    {"whats-this", []string{"whats_this", "help", "question_arrow", "5c6cd98b3f3ebcb1f9c7f1c204630408", "d9ce0ab605698f320427677b458ad60b"}},
	Busy:         {"busy", []string{"left_ptr_watch", "half-busy", "progress", "00000000000000020006000e7e9ffc3f", "08e8e1c95fe2fc01f976f1e063a24ccd"}},
	OpenHand:     {"open-hand", []string{"openhand", "grab", "fleur", "5aca4d189052212118709018842178c0", "9d800788f1b08800ae810202380a0822"}},
	ClosedHand:   {"closed-hand", []string{"closedhand", "grabbing", "208530c400c041818281048008011002"}},
	DragCopy:     {"drag-copy", []string{"dnd-copy", "copy", "1081e37283d90000800003c07f3ef6bf", "6407b0e94181790501fd1e167b474872"}},
	DragMove:     {"drag-move", []string{"dnd-move", "move", "closedhand", "4498f0e0c1937ffe01fd06f973665830", "9081237383d90e509aa00f00170e968f"}},
	DragLink:     {"drag-link", []string{"dnd-link", "link", "alias", "3085a0e285430894940527032f8b26df", "640fb0e74195791501fd1ed57b41487f"}},
}

// Shapes returns every valid shape.
func Shapes() []Shape {
	s := make([]Shape, 0, shapeCount)
	for i := Shape(0); i < shapeCount; i++ {
		s = append(s, i)
	}
	return s
}

// ParseShape returns the shape with the given name, as returned by
// String.
func ParseShape(name string) (Shape, bool) {
	for i, s := range shapes {
		if s.name == name {
			return Shape(i), true
		}
	}
	return -1, false
}

// Valid reports whether s is one of the defined shapes.
func (s Shape) Valid() bool {
	return (s >= 0) && (s < shapeCount)
}

func (s Shape) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return shapes[s].name
}

// ThemeNames returns the names that a theme may use for s, most
// preferred first. The returned slice must not be modified.
func (s Shape) ThemeNames() []string {
	if !s.Valid() {
		return nil
	}
	return shapes[s].theme
}
