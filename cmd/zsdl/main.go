package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/JrMasterModelBuilder/zsdl"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var version = "1.0.0"

func main() {

	app := &cli.App{
		Name:      "zsdl",
		Usage:     "storage page downloader",
		UsageText: "zsdl [options] URL [FILE]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Verbose mode",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"D"},
				Usage:   "Debug output",
			},
			&cli.IntFlag{
				Name:    "buffer",
				Aliases: []string{"B"},
				Value:   zsdl.DefaultBufferSize,
				Usage:   "Buffer size in bytes",
			},
			&cli.IntFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   60,
				Usage:   "Request timeout in seconds",
			},
			&cli.BoolFlag{
				Name:    "mtime",
				Aliases: []string{"M"},
				Usage:   "Use server modified time",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {

		if debug {
			fmt.Printf("Error (%T): %v\n", err, err)
		} else {
			fmt.Printf("Error: %v\n", err)
		}

		os.Exit(1)
	}
}

var debug bool

func run(c *cli.Context) error {

	if c.NArg() < 1 {
		cli.ShowAppHelp(c)
		return fmt.Errorf("missing URL argument")
	}

	debug = c.Bool("debug")

	rawURL := c.Args().Get(0)
	file := c.Args().Get(1)
	dir := c.String("dir")

	f := zsdl.NewWithContext(c.Context)
	f.Client = zsdl.NewClient(time.Duration(c.Int("timeout")) * time.Second)
	f.BufferSize = c.Int("buffer")
	f.Mtime = c.Bool("mtime")

	verbose := c.Bool("verbose")

	f.Logf = func(v bool, format string, args ...interface{}) {

		if v && !verbose {
			return
		}

		fmt.Printf(format+"\n", args...)
	}

	r := &renderer{out: os.Stdout}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		f.ProgressFunc = r.update
	}

	if dir != "" {
		fmt.Printf("Output dir: %s\n", dir)
	}

	if file != "" {
		fmt.Printf("Output file: %s\n", file)
	}

	err := f.Fetch(rawURL, dir, file)

	// Move past the progress line whether the fetch worked or not.
	r.finish()

	if err != nil {
		return err
	}

	fmt.Println(color("Done"))

	return nil
}

// renderer repaints one progress line in place, padded to the longest line
// written so far so shorter lines fully overwrite longer ones.
type renderer struct {
	out    io.Writer
	max    int
	active bool
}

func (r *renderer) update(p zsdl.Progress) {

	switch p.Kind {

	case zsdl.ProgressStart:
		r.max = 0
		r.active = true
		return

	case zsdl.ProgressRead:
		// The paired Wrote repaints with the same counts.
		return
	}

	line := progressLine(p)

	if len(line) > r.max {
		r.max = len(line)
	} else {
		line += strings.Repeat(" ", r.max-len(line))
	}

	fmt.Fprintf(r.out, "\r%s\r", line)
}

func (r *renderer) finish() {

	if r.active {
		fmt.Fprintln(r.out)
	}
}

func progressLine(p zsdl.Progress) string {

	total := p.Total

	if total < 0 {
		total = 0
	}

	elapsed := p.Now.Sub(p.StartedAt)

	subTotal := total - p.Offset
	subCurrent := p.Current - p.Offset
	subRemain := subTotal - subCurrent

	var bytesSec float64

	if s := elapsed.Seconds(); s > 0 {
		bytesSec = float64(subCurrent) / s
	}

	var remain time.Duration

	if bytesSec > 0 && subRemain > 0 {
		remain = time.Duration(float64(subRemain) / bytesSec * float64(time.Second))
	}

	return strings.Join([]string{
		"",
		secondsHuman(elapsed),
		percentHuman(p.Current, total),
		fmt.Sprintf("%s (%d) / %s (%d)",
			humanize.IBytes(uint64(p.Current)), p.Current,
			humanize.IBytes(uint64(total)), total,
		),
		fmt.Sprintf("%s/s", humanize.IBytes(uint64(bytesSec))),
		secondsHuman(remain),
	}, "  ")
}

func secondsHuman(d time.Duration) string {

	s := int64(d.Seconds())

	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

func percentHuman(part, total int64) string {

	var f float64

	if total > 0 {
		f = float64(part) / float64(total)
	}

	return fmt.Sprintf("%.2f%%", f*100)
}
