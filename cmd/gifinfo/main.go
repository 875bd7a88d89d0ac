// Command gifinfo prints the block structure of GIF files.
//
//	gifinfo [flags] file.gif...
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	gif "github.com/NathanBaulch/gifcodec"
	fcolor "github.com/fatih/color"
)

var (
	previewFlag     = flag.Int("preview", -1, "render the frame with this index as text")
	reencodeFlag    = flag.String("reencode", "", "write the decoded file to this path")
	optimizeFlag    = flag.Bool("optimize", false, "optimize frames before re-encoding")
	transparentFlag = flag.Int("transparent", 0, "transparent index used by -optimize")
	lenientFlag     = flag.Bool("lenient", false, "accept full LZW dictionaries and frames without color table")
	earlyChangeFlag = flag.Bool("early-change", false, "use the early change LZW code width convention")
	skipExtFlag     = flag.Bool("skip-extensions", false, "skip comment, application and plain text extensions")
	verboseFlag     = flag.Bool("v", false, "log tolerated irregularities")
)

var (
	heading = fcolor.New(fcolor.FgCyan, fcolor.Bold).SprintFunc()
	label   = fcolor.New(fcolor.FgYellow).SprintFunc()
	failure = fcolor.New(fcolor.FgRed).SprintFunc()
)

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: gifinfo [flags] file.gif...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := options()
	failed := false
	for _, path := range flag.Args() {
		if err := run(ctx, os.Stdout, path, opts); err != nil {
			log.Println(failure(path+":"), err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func options() []gif.Option {
	var opts []gif.Option
	if *lenientFlag {
		opts = append(opts, gif.WithDeferredClear(), gif.WithoutColorTable())
	}
	if *earlyChangeFlag {
		opts = append(opts, gif.WithEarlyChange())
	}
	if *skipExtFlag {
		opts = append(opts, gif.WithSkipExtensions())
	}
	if *verboseFlag {
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, gif.WithLogger(slog.New(h)))
	}
	return opts
}

func run(ctx context.Context, w io.Writer, path string, opts []gif.Option) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := gif.DecodeContext(ctx, f, opts...)
	if g != nil {
		describe(w, path, g)
	}
	if err != nil {
		return err
	}

	if *previewFlag >= 0 {
		frames := g.Frames()
		if *previewFlag >= len(frames) {
			return fmt.Errorf("no frame %d", *previewFlag)
		}
		if err := preview(w, g, frames[*previewFlag]); err != nil {
			return err
		}
	}

	if *reencodeFlag != "" {
		if *optimizeFlag {
			if err := gif.OptimizeAll(g.Frames(), uint8(*transparentFlag)); err != nil {
				return err
			}
		}
		out, err := os.Create(*reencodeFlag)
		if err != nil {
			return err
		}
		if err := gif.EncodeContext(ctx, out, g, opts...); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	}
	return nil
}

func describe(w io.Writer, path string, g *gif.GIF) {
	s := g.Screen
	fmt.Fprintln(w, heading(path))
	fmt.Fprintf(w, "  %s %s, %dx%d, color resolution %d, aspect %d\n", label("header"), g.Version, s.Width, s.Height, s.ColorResolution+1, s.AspectRatio)
	if g.GlobalColorTable != nil {
		bg, _ := g.BackgroundColor()
		fmt.Fprintf(w, "  %s %d colors, sorted %t, background %d %v\n", label("global table"), len(g.GlobalColorTable), s.Sorted, s.BackgroundIndex, bg)
	}
	if n := g.LoopCount(); n >= 0 {
		fmt.Fprintf(w, "  %s %d\n", label("loop count"), n)
	}

	i := 0
	for _, b := range g.Blocks {
		switch b := b.(type) {
		case *gif.Frame:
			fmt.Fprintf(w, "  %s %d %v", label("frame"), i, b.Bounds())
			if b.Descriptor.Interlaced {
				fmt.Fprint(w, " interlaced")
			}
			if b.LocalColorTable != nil {
				fmt.Fprintf(w, " local table %d colors", len(b.LocalColorTable))
			}
			if b.Control != nil {
				fmt.Fprintf(w, " delay %v disposal %v", b.Delay(), b.Disposal())
				if t, ok := b.Transparent(); ok {
					fmt.Fprintf(w, " transparent %d", t)
				}
			}
			fmt.Fprintln(w)
			i++
		case *gif.Extension:
			describeExtension(w, b)
		}
	}
}

func describeExtension(w io.Writer, x *gif.Extension) {
	if c, ok := x.Comment(); ok {
		fmt.Fprintf(w, "  %s %q\n", label("comment"), strings.Join(c.Strings, ""))
	} else if a, ok := x.Application(); ok {
		fmt.Fprintf(w, "  %s %q, %d sub-blocks\n", label("application"), a.Identifier, len(a.SubBlocks))
	} else if pt, ok := x.PlainText(); ok {
		fmt.Fprintf(w, "  %s %dx%d at %d,%d %q\n", label("plain text"), pt.Width, pt.Height, pt.Left, pt.Top, strings.Join(pt.Strings, ""))
	} else {
		fmt.Fprintf(w, "  %s 0x%.2x, %d bytes\n", label("extension"), x.Label, len(x.Payload()))
	}
}

var levels = []rune(" ░▒▓█")

// preview renders f as text, one character per pixel by luminance. Transparent pixels are
// blank.
func preview(w io.Writer, g *gif.GIF, f *gif.Frame) error {
	m, err := g.NRGBA(f)
	if err != nil {
		return err
	}
	b := m.Bounds()
	line := make([]rune, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.NRGBAAt(x, y)
			if c.A == 0 {
				line[x-b.Min.X] = ' '
				continue
			}
			line[x-b.Min.X] = levels[color.GrayModel.Convert(c).(color.Gray).Y/52]
		}
		if _, err := fmt.Fprintln(w, string(line)); err != nil {
			return err
		}
	}
	return nil
}
