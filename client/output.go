package wl

import "deedles.dev/wlbackend/wire"

type Output struct {
	object
	Listener OutputListener
}

// OutputListener receives an output's properties. A batch of changes
// is terminated by Done.
type OutputListener interface {
	Geometry(x, y, physicalWidth, physicalHeight int32, subpixel OutputSubpixel, make, model string, transform OutputTransform)
	Mode(flags OutputMode, width, height, refresh int32)
	Done()
	Scale(factor int32)
	Name(name string)
	Description(description string)
}

var outputEvents = []string{"geometry", "mode", "done", "scale", "name", "description"}

func IsOutput(i Interface) bool {
	return i.Is(OutputInterface, 2)
}

func BindOutput(registry *Registry, name, version uint32) *Output {
	var output Output
	registry.bind(name, &output, &output.object, min(version, OutputVersion))
	return &output
}

func (output *Output) Interface() string {
	return OutputInterface
}

func (output *Output) MethodName(op uint16) string {
	return methodName(outputEvents, op)
}

func (output *Output) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		x := msg.ReadInt()
		y := msg.ReadInt()
		pw := msg.ReadInt()
		ph := msg.ReadInt()
		subpixel := msg.ReadInt()
		make := msg.ReadString()
		model := msg.ReadString()
		transform := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if output.Listener != nil {
			output.Listener.Geometry(x, y, pw, ph, OutputSubpixel(subpixel), make, model, OutputTransform(transform))
		}
		return nil

	case 1:
		flags := msg.ReadUint()
		width := msg.ReadInt()
		height := msg.ReadInt()
		refresh := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if output.Listener != nil {
			output.Listener.Mode(OutputMode(flags), width, height, refresh)
		}
		return nil

	case 2:
		if output.Listener != nil {
			output.Listener.Done()
		}
		return nil

	case 3:
		factor := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if output.Listener != nil {
			output.Listener.Scale(factor)
		}
		return nil

	case 4, 5:
		str := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if output.Listener == nil {
			return nil
		}
		if msg.Op() == 4 {
			output.Listener.Name(str)
			return nil
		}
		output.Listener.Description(str)
		return nil

	default:
		return unknownEvent(OutputInterface, msg.Op())
	}
}

// Release destroys the output. Before version 3 there is no destructor
// and the object is only forgotten locally.
func (output *Output) Release() {
	if output.version >= 3 {
		output.client.send(wire.NewMessage(output, 0, "release"))
	}
	output.dead = true
}
