package backend

import (
	"image"

	wl "deedles.dev/wlbackend/client"
)

// Mode is a video mode of an output.
type Mode struct {
	Size    image.Point
	Refresh int32
	Flags   wl.OutputMode
}

// Output is a display that the compositor shows surfaces on.
type Output struct {
	output  *wl.Output
	global  Global
	changed func(*Output)

	position  image.Point
	physical  image.Point
	subpixel  wl.OutputSubpixel
	make      string
	model     string
	transform wl.OutputTransform
	mode      Mode
	modes     []Mode
	scale     int32
	name      string
	desc      string
	done      bool
}

func newOutput(output *wl.Output, g Global, changed func(*Output)) *Output {
	o := Output{
		output:  output,
		global:  g,
		changed: changed,
		scale:   1,
	}
	output.Listener = (*outputListener)(&o)
	return &o
}

// Global is the global that the output was bound from.
func (o *Output) Global() Global {
	return o.global
}

// Done reports whether the compositor has finished describing the
// output at least once.
func (o *Output) Done() bool {
	return o.done
}

// Position is the output's position in the compositor's global space.
func (o *Output) Position() image.Point {
	return o.position
}

// PhysicalSize is the size of the output in millimeters.
func (o *Output) PhysicalSize() image.Point {
	return o.physical
}

// PixelSize is the size of the current mode.
func (o *Output) PixelSize() image.Point {
	return o.mode.Size
}

// Geometry is the area covered by the output in the compositor's
// global space, taking the transform and scale into account.
func (o *Output) Geometry() image.Rectangle {
	size := o.mode.Size
	if o.transform.Rotated() {
		size.X, size.Y = size.Y, size.X
	}
	if o.scale > 1 {
		size = size.Div(int(o.scale))
	}
	return image.Rectangle{Min: o.position, Max: o.position.Add(size)}
}

func (o *Output) Mode() Mode {
	return o.mode
}

// Modes returns every mode that the compositor has listed.
func (o *Output) Modes() []Mode {
	return append([]Mode(nil), o.modes...)
}

func (o *Output) RefreshRate() int32 {
	return o.mode.Refresh
}

func (o *Output) Scale() int32 {
	return o.scale
}

func (o *Output) Transform() wl.OutputTransform {
	return o.transform
}

func (o *Output) Subpixel() wl.OutputSubpixel {
	return o.subpixel
}

func (o *Output) Manufacturer() string {
	return o.make
}

func (o *Output) Model() string {
	return o.model
}

func (o *Output) Name() string {
	return o.name
}

func (o *Output) Description() string {
	return o.desc
}

// Output returns the underlying protocol object.
func (o *Output) Output() *wl.Output {
	return o.output
}

func (o *Output) release() {
	o.changed = nil
	o.output.Release()
}

// update reports a change. Outputs older than version 2 never send
// done, so every property change is complete on its own.
func (o *Output) update() {
	if o.output.Version() >= 2 {
		return
	}
	o.commit()
}

func (o *Output) commit() {
	o.done = true
	if o.changed != nil {
		o.changed(o)
	}
}

type outputListener Output

func (lis *outputListener) Geometry(x, y, physicalWidth, physicalHeight int32, subpixel wl.OutputSubpixel, make, model string, transform wl.OutputTransform) {
	lis.position = image.Pt(int(x), int(y))
	lis.physical = image.Pt(int(physicalWidth), int(physicalHeight))
	lis.subpixel = subpixel
	lis.make = make
	lis.model = model
	lis.transform = transform
	(*Output)(lis).update()
}

func (lis *outputListener) Mode(flags wl.OutputMode, width, height, refresh int32) {
	mode := Mode{
		Size:    image.Pt(int(width), int(height)),
		Refresh: refresh,
		Flags:   flags,
	}

	i := -1
	for j, m := range lis.modes {
		if (m.Size == mode.Size) && (m.Refresh == mode.Refresh) {
			i = j
			break
		}
	}
	if i < 0 {
		lis.modes = append(lis.modes, mode)
	} else {
		lis.modes[i] = mode
	}

	if flags&wl.OutputModeCurrent != 0 {
		lis.mode = mode
		(*Output)(lis).update()
	}
}

func (lis *outputListener) Done() {
	(*Output)(lis).commit()
}

func (lis *outputListener) Scale(factor int32) {
	lis.scale = factor
}

func (lis *outputListener) Name(name string) {
	lis.name = name
}

func (lis *outputListener) Description(description string) {
	lis.desc = description
}
