package cursor

import (
	"errors"
	"fmt"
	"image"
)

// ErrUnknownCursor is returned by LegacyDecoder for IDs that aren't
// glyphs of the X11 cursor font or that the theme lacks.
var ErrUnknownCursor = errors.New("unknown cursor")

// Glyph IDs of the X11 cursor font, from X11/cursorfont.h.
const (
	XCXCursor           = 0
	XCArrow             = 2
	XCBottomLeftCorner  = 12
	XCBottomRightCorner = 14
	XCBottomSide        = 16
	XCCenterPtr         = 22
	XCCircle            = 24
	XCCross             = 30
	XCCrosshair         = 34
	XCDotbox            = 40
	XCFleur             = 52
	XCHand1             = 58
	XCHand2             = 60
	XCLeftPtr           = 68
	XCLeftSide          = 70
	XCPirate            = 88
	XCPlus              = 90
	XCQuestionArrow     = 92
	XCRightSide         = 96
	XCSbHDoubleArrow    = 108
	XCSbVDoubleArrow    = 116
	XCSizing            = 120
	XCTcross            = 130
	XCTopLeftCorner     = 134
	XCTopRightCorner    = 136
	XCTopSide           = 138
	XCWatch             = 150
	XCXterm             = 152
)

var legacyNames = map[uint32]string{
	XCXCursor:           "X_cursor",
	XCArrow:             "arrow",
	XCBottomLeftCorner:  "bottom_left_corner",
	XCBottomRightCorner: "bottom_right_corner",
	XCBottomSide:        "bottom_side",
	XCCenterPtr:         "center_ptr",
	XCCircle:            "circle",
	XCCross:             "cross",
	XCCrosshair:         "crosshair",
	XCDotbox:            "dotbox",
	XCFleur:             "fleur",
	XCHand1:             "hand1",
	XCHand2:             "hand2",
	XCLeftPtr:           "left_ptr",
	XCLeftSide:          "left_side",
	XCPirate:            "pirate",
	XCPlus:              "plus",
	XCQuestionArrow:     "question_arrow",
	XCRightSide:         "right_side",
	XCSbHDoubleArrow:    "sb_h_double_arrow",
	XCSbVDoubleArrow:    "sb_v_double_arrow",
	XCSizing:            "sizing",
	XCTcross:            "tcross",
	XCTopLeftCorner:     "top_left_corner",
	XCTopRightCorner:    "top_right_corner",
	XCTopSide:           "top_side",
	XCWatch:             "watch",
	XCXterm:             "xterm",
}

// LegacyName returns the theme name of an X11 cursor font glyph.
func LegacyName(id uint32) (string, bool) {
	name, ok := legacyNames[id]
	return name, ok
}

// LegacyDecoder decodes X11 cursor font glyph IDs by looking their
// names up in a theme.
type LegacyDecoder struct {
	Theme Theme
}

func (dec LegacyDecoder) DecodeCursor(id uint32) (image.Image, image.Point, error) {
	name, ok := legacyNames[id]
	if !ok {
		return nil, image.Point{}, fmt.Errorf("%w: glyph %v", ErrUnknownCursor, id)
	}
	if dec.Theme == nil {
		return nil, image.Point{}, fmt.Errorf("%w: %v: no theme", ErrUnknownCursor, name)
	}

	img, ok := dec.Theme.Cursor(name)
	if !ok {
		return nil, image.Point{}, fmt.Errorf("%w: %v", ErrUnknownCursor, name)
	}
	return img.Image, img.Hotspot, nil
}
