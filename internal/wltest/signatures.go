package wltest

// signature describes the arguments of a request. Each byte of args is
// one argument:
//
//	i  int
//	u  uint
//	o  object
//	n  new_id of the interface named by creates
//	N  new_id with an explicit interface and version
//	s  string
//	a  array
//	h  file descriptor
type signature struct {
	method  string
	args    string
	creates string
}

// requests lists, by interface, the requests that the compositor
// understands, indexed by opcode.
var requests = map[string][]signature{
	"wl_display": {
		{"sync", "n", "wl_callback"},
		{"get_registry", "n", "wl_registry"},
	},
	"wl_registry": {
		{"bind", "uN", ""},
	},
	"wl_callback": nil,
	"wl_compositor": {
		{"create_surface", "n", "wl_surface"},
		{"create_region", "n", "wl_region"},
	},
	"wl_surface": {
		{"destroy", "", ""},
		{"attach", "oii", ""},
		{"damage", "iiii", ""},
		{"frame", "n", "wl_callback"},
		{"set_opaque_region", "o", ""},
		{"set_input_region", "o", ""},
		{"commit", "", ""},
		{"set_buffer_transform", "i", ""},
		{"set_buffer_scale", "i", ""},
		{"damage_buffer", "iiii", ""},
	},
	"wl_shell": {
		{"get_shell_surface", "no", "wl_shell_surface"},
	},
	"wl_shell_surface": {
		{"pong", "u", ""},
		{"move", "ou", ""},
		{"resize", "ouu", ""},
		{"set_toplevel", "", ""},
		{"set_transient", "oiiu", ""},
		{"set_fullscreen", "uuo", ""},
		{"set_popup", "ouoiiu", ""},
		{"set_maximized", "o", ""},
		{"set_title", "s", ""},
		{"set_class", "s", ""},
	},
	"zwp_fullscreen_shell_v1": {
		{"release", "", ""},
		{"present_surface", "ouo", ""},
		{"present_surface_for_mode", "ooin", "zwp_fullscreen_shell_mode_feedback_v1"},
	},
	"wl_shm": {
		{"create_pool", "nhi", "wl_shm_pool"},
	},
	"wl_shm_pool": {
		{"create_buffer", "niiiiu", "wl_buffer"},
		{"destroy", "", ""},
		{"resize", "i", ""},
	},
	"wl_buffer": {
		{"destroy", "", ""},
	},
	"wl_output": {
		{"release", "", ""},
	},
	"wl_seat": {
		{"get_pointer", "n", "wl_pointer"},
		{"get_keyboard", "n", "wl_keyboard"},
		{"get_touch", "n", "wl_touch"},
		{"release", "", ""},
	},
	"wl_pointer": {
		{"set_cursor", "uoii", ""},
		{"release", "", ""},
	},
	"wl_keyboard": {
		{"release", "", ""},
	},
}

// destructors are the requests after which the compositor deletes the
// object and acknowledges it with delete_id.
var destructors = map[string]bool{
	"wl_surface.destroy":              true,
	"zwp_fullscreen_shell_v1.release": true,
	"wl_shm_pool.destroy":             true,
	"wl_buffer.destroy":               true,
	"wl_output.release":               true,
	"wl_seat.release":                 true,
	"wl_pointer.release":              true,
	"wl_keyboard.release":             true,
}
