package cursor

import "image"

// Installer installs cursor images. It is implemented by seats.
type Installer interface {
	InstallCursor(img image.Image, hotspot image.Point) error
}

// Tracker follows the cursor of a foreign client, such as an X server,
// that identifies its cursors by serial. Decoded cursors are cached by
// serial, failures included.
type Tracker struct {
	dec  Decoder
	inst Installer

	cache           map[uint32]Data
	installed       Data
	installedSerial uint32
}

// NewTracker returns a tracker that decodes with dec and installs into
// inst. The tracker does not own inst.
func NewTracker(dec Decoder, inst Installer) *Tracker {
	return &Tracker{
		dec:   dec,
		inst:  inst,
		cache: make(map[uint32]Data),
	}
}

// CursorChanged installs the cursor identified by serial. It does
// nothing if that cursor is already installed or if it can't be
// decoded, in which case the previous cursor stays.
func (t *Tracker) CursorChanged(serial uint32) error {
	if t.installed.Valid() && (t.installedSerial == serial) {
		return nil
	}

	data, ok := t.cache[serial]
	if !ok {
		data = NewData(t.dec, serial)
		t.cache[serial] = data
	}
	if !data.Valid() {
		return nil
	}

	return t.install(serial, data)
}

// Reload drops every cached cursor and decodes the installed one
// again. It is meant for when the decoder's source, such as a cursor
// theme, has changed.
func (t *Tracker) Reload() error {
	clear(t.cache)
	if !t.installed.Valid() {
		return nil
	}

	serial := t.installedSerial
	t.installed = Data{}
	return t.CursorChanged(serial)
}

// ResetCursor installs the most recently installed cursor again. It
// does nothing if no cursor has been installed.
func (t *Tracker) ResetCursor() error {
	if !t.installed.Valid() {
		return nil
	}
	return t.install(t.installedSerial, t.installed)
}

func (t *Tracker) install(serial uint32, data Data) error {
	img := data.Image()
	err := t.inst.InstallCursor(img.Image, img.Hotspot)
	if err != nil {
		return err
	}
	t.installed, t.installedSerial = data, serial
	return nil
}

// Installed returns the cursor that was installed most recently.
func (t *Tracker) Installed() (Data, bool) {
	return t.installed, t.installed.Valid()
}

// InstalledSerial returns the serial of the installed cursor.
func (t *Tracker) InstalledSerial() (uint32, bool) {
	return t.installedSerial, t.installed.Valid()
}

// Cached returns the cached result of decoding serial.
func (t *Tracker) Cached(serial uint32) (Data, bool) {
	data, ok := t.cache[serial]
	return data, ok
}
