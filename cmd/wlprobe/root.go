package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"deedles.dev/wlbackend/backend"
	"deedles.dev/wlbackend/config"
	"deedles.dev/wlbackend/cursor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type options struct {
	configPath string
	cursor     string
	x11Cursor  int
	timeout    time.Duration
	watch      bool
}

func newRootCmd() *cobra.Command {
	var opts options
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "wlprobe",
		Short: "Probe a Wayland compositor",
		Long: `wlprobe connects to a Wayland compositor, binds its globals, creates a
fullscreen surface and prints the outputs and seats that it finds.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return probe(cmd, v, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to a config file")
	flags.String("display", "", "display socket (default $WAYLAND_DISPLAY)")
	flags.String("cursor-theme", "", "cursor theme (default $XCURSOR_THEME)")
	flags.Int("cursor-size", 0, "cursor size (default $XCURSOR_SIZE)")
	flags.String("log-level", "", "log level")
	flags.Bool("legacy-cursors", false, "track X11 cursor font glyphs through the cursor theme")
	flags.StringVar(&opts.cursor, "cursor", "", "cursor shape to install, such as arrow or ibeam")
	flags.IntVar(&opts.x11Cursor, "x11-cursor", -1, "X11 cursor font glyph to install, such as 68 for left_ptr (implies --legacy-cursors)")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Second, "how long to wait for the backend to become ready")
	flags.BoolVar(&opts.watch, "watch", false, "keep running and print events until interrupted")

	for key, flag := range map[string]string{
		"display":        "display",
		"cursor_theme":   "cursor-theme",
		"cursor_size":    "cursor-size",
		"log_level":      "log-level",
		"legacy_cursors": "legacy-cursors",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	return cmd
}

func probe(cmd *cobra.Command, v *viper.Viper, opts options) error {
	if opts.x11Cursor >= 0 {
		v.Set("legacy_cursors", true)
	}

	cfg, err := config.Read(v, opts.configPath)
	if err != nil {
		return err
	}

	logger := cfg.Logger(cmd.ErrOrStderr())
	b := backend.New(cfg.BackendOptions(logger))
	defer b.Close()

	out := cmd.OutOrStdout()
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	readyCtx, ready := context.WithCancel(ctx)
	defer ready()
	b.Subscribe(func(ev backend.Event) {
		if opts.watch {
			printEvent(out, ev)
		}
		if _, ok := ev.(backend.BackendReady); ok {
			ready()
		}
	})

	err = b.Connect(ctx)
	if err != nil {
		return err
	}

	err = b.Run(readyCtx)
	if b.State() != backend.StateReady {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("backend not ready after %v", opts.timeout)
		}
		return err
	}

	// Make sure that the outputs and seats have been described.
	err = b.RoundTrip()
	if err != nil {
		return err
	}

	printOutputs(out, b.Outputs())
	printSeats(out, b.Seats())
	fmt.Fprintf(out, "surface size: %v\n", b.ShellSurfaceSize())

	if opts.cursor != "" {
		shape, ok := cursor.ParseShape(opts.cursor)
		if !ok {
			return fmt.Errorf("unknown cursor shape %q", opts.cursor)
		}
		err := b.InstallCursorImage(shape)
		if err != nil {
			return fmt.Errorf("install cursor: %w", err)
		}
		err = b.RoundTrip()
		if err != nil {
			return err
		}
	}

	if opts.x11Cursor >= 0 {
		err := installGlyph(b, uint32(opts.x11Cursor))
		if err != nil {
			return fmt.Errorf("install x11 cursor: %w", err)
		}
	}

	if !opts.watch {
		return nil
	}

	err = b.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func installGlyph(b *backend.Backend, glyph uint32) error {
	seat := b.Seat()
	if (seat == nil) || (seat.Tracker() == nil) {
		return errors.New("no seat to install into")
	}

	err := b.CursorChanged(glyph)
	if err != nil {
		return err
	}
	if data, ok := seat.Tracker().Cached(glyph); ok && !data.Valid() {
		return data.Err()
	}
	return b.RoundTrip()
}

func printOutputs(w io.Writer, outputs []*backend.Output) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "OUTPUT\tNAME\tGEOMETRY\tMODE\tSCALE\tMAKE\tMODEL")
	for i, o := range outputs {
		mode := o.Mode()
		fmt.Fprintf(tw, "%v\t%v\t%v\t%vx%v@%.2f\t%v\t%v\t%v\n",
			i,
			o.Name(),
			o.Geometry(),
			mode.Size.X, mode.Size.Y, float64(mode.Refresh)/1000,
			o.Scale(),
			o.Manufacturer(),
			o.Model(),
		)
	}
}

func printSeats(w io.Writer, seats []*backend.Seat) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "SEAT\tNAME\tCAPABILITIES")
	for i, s := range seats {
		fmt.Fprintf(tw, "%v\t%v\t%v\n", i, s.Name(), s.Capabilities())
	}
}

func printEvent(w io.Writer, ev backend.Event) {
	switch ev := ev.(type) {
	case backend.ShellSurfaceSizeChanged:
		fmt.Fprintf(w, "event: surface size changed to %v\n", ev.Size)
	case backend.SystemCompositorDied:
		fmt.Fprintf(w, "event: compositor died: %v\n", ev.Err)
	case backend.BackendReady:
		fmt.Fprintln(w, "event: backend ready")
	case backend.OutputsChanged:
		fmt.Fprintln(w, "event: outputs changed")
	case backend.ConnectionFailed:
		fmt.Fprintf(w, "event: connection failed: %v\n", ev.Err)
	case backend.ProtocolError:
		fmt.Fprintf(w, "event: protocol error on object %v: %v: %v\n", ev.ObjectID, ev.Code, ev.Message)
	}
}
