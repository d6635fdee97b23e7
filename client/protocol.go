package wl

import "strings"

// Interface names and the highest versions implemented by this
// package.
const (
	DisplayInterface = "wl_display"
	RegistryInterface = "wl_registry"
	CallbackInterface = "wl_callback"

	CompositorInterface = "wl_compositor"
	CompositorVersion   = 4
	SurfaceInterface    = "wl_surface"

	ShellInterface        = "wl_shell"
	ShellVersion          = 1
	ShellSurfaceInterface = "wl_shell_surface"

	FullscreenShellInterface = "zwp_fullscreen_shell_v1"
	FullscreenShellVersion   = 1

	ShmInterface     = "wl_shm"
	ShmVersion       = 1
	ShmPoolInterface = "wl_shm_pool"
	BufferInterface  = "wl_buffer"

	OutputInterface = "wl_output"
	OutputVersion   = 4

	SeatInterface     = "wl_seat"
	SeatVersion       = 5
	PointerInterface  = "wl_pointer"
	KeyboardInterface = "wl_keyboard"
)

// Interface describes a global advertised by the registry.
type Interface struct {
	Name    string
	Version uint32
}

// Is reports whether i is the named interface at a version of at least
// min.
func (i Interface) Is(name string, min uint32) bool {
	return (i.Name == name) && (i.Version >= min)
}

// DisplayError is a wl_display.error code.
type DisplayError uint32

const (
	DisplayErrorInvalidObject DisplayError = iota
	DisplayErrorInvalidMethod
	DisplayErrorNoMemory
	DisplayErrorImplementation
)

func (e DisplayError) String() string {
	switch e {
	case DisplayErrorInvalidObject:
		return "invalid object"
	case DisplayErrorInvalidMethod:
		return "invalid method"
	case DisplayErrorNoMemory:
		return "no memory"
	case DisplayErrorImplementation:
		return "implementation"
	}
	return "unknown"
}

// SeatCapability is the bitmask of input devices a seat has.
type SeatCapability uint32

const (
	SeatCapabilityPointer SeatCapability = 1 << iota
	SeatCapabilityKeyboard
	SeatCapabilityTouch
)

// Has reports whether every bit of c2 is set in c.
func (c SeatCapability) Has(c2 SeatCapability) bool {
	return c&c2 == c2
}

func (c SeatCapability) String() string {
	var names []string
	if c.Has(SeatCapabilityPointer) {
		names = append(names, "pointer")
	}
	if c.Has(SeatCapabilityKeyboard) {
		names = append(names, "keyboard")
	}
	if c.Has(SeatCapabilityTouch) {
		names = append(names, "touch")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ShmFormat is a pixel format. Only the two formats every compositor
// must support are named.
type ShmFormat uint32

const (
	ShmFormatArgb8888 ShmFormat = iota
	ShmFormatXrgb8888
)

// BytesPerPixel returns the size of one pixel.
func (f ShmFormat) BytesPerPixel() int {
	return 4
}

func (f ShmFormat) String() string {
	switch f {
	case ShmFormatArgb8888:
		return "argb8888"
	case ShmFormatXrgb8888:
		return "xrgb8888"
	}
	return "unknown"
}

type OutputSubpixel int32

const (
	OutputSubpixelUnknown OutputSubpixel = iota
	OutputSubpixelNone
	OutputSubpixelHorizontalRgb
	OutputSubpixelHorizontalBgr
	OutputSubpixelVerticalRgb
	OutputSubpixelVerticalBgr
)

type OutputTransform int32

const (
	OutputTransformNormal OutputTransform = iota
	OutputTransform90
	OutputTransform180
	OutputTransform270
	OutputTransformFlipped
	OutputTransformFlipped90
	OutputTransformFlipped180
	OutputTransformFlipped270
)

// Rotated reports whether the transform swaps width and height.
func (t OutputTransform) Rotated() bool {
	return t&1 != 0
}

// OutputMode holds the flags of an output mode.
type OutputMode uint32

const (
	OutputModeCurrent OutputMode = 1 << iota
	OutputModePreferred
)

type PointerButtonState uint32

const (
	PointerButtonStateReleased PointerButtonState = iota
	PointerButtonStatePressed
)

type PointerAxis uint32

const (
	PointerAxisVerticalScroll PointerAxis = iota
	PointerAxisHorizontalScroll
)

type PointerAxisSource uint32

const (
	PointerAxisSourceWheel PointerAxisSource = iota
	PointerAxisSourceFinger
	PointerAxisSourceContinuous
	PointerAxisSourceWheelTilt
)

type KeyboardKeymapFormat uint32

const (
	KeyboardKeymapFormatNoKeymap KeyboardKeymapFormat = iota
	KeyboardKeymapFormatXkbV1
)

type KeyboardKeyState uint32

const (
	KeyboardKeyStateReleased KeyboardKeyState = iota
	KeyboardKeyStatePressed
)

// ShellSurfaceFullscreenMethod tells the compositor how to fit a
// fullscreen shell surface whose size doesn't match the output.
type ShellSurfaceFullscreenMethod uint32

const (
	ShellSurfaceFullscreenMethodDefault ShellSurfaceFullscreenMethod = iota
	ShellSurfaceFullscreenMethodScale
	ShellSurfaceFullscreenMethodDriver
	ShellSurfaceFullscreenMethodFill
)

// FullscreenShellPresentMethod is the zwp_fullscreen_shell_v1
// equivalent of ShellSurfaceFullscreenMethod.
type FullscreenShellPresentMethod uint32

const (
	FullscreenShellPresentMethodDefault FullscreenShellPresentMethod = iota
	FullscreenShellPresentMethodCenter
	FullscreenShellPresentMethodZoom
	FullscreenShellPresentMethodZoomCrop
	FullscreenShellPresentMethodStretch
)

type FullscreenShellCapability uint32

const (
	FullscreenShellCapabilityArbitraryModes FullscreenShellCapability = 1 + iota
	FullscreenShellCapabilityCursorPlane
)
