// Command unprint simulates an Epson raster printer: it reads an ESC/P
// print job and renders the page the printer would have produced.
//
// Usage:
//
//	unprint                  read stdin, write stdout
//	unprint JOB              read JOB, write stdout
//	unprint - OUT            read stdin, write OUT
//	unprint JOB OUT          read JOB, write OUT
//
// The environment variables UNPRINT_FORMAT (png, tiff, sixel or none),
// UNPRINT_LOG_LEVEL, UNPRINT_LEGACY_RLE and UNPRINT_PREVIEW_WIDTH tune
// the output.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/ivanizag/unprint/escp"
	"github.com/ivanizag/unprint/internal/capture"
	"github.com/ivanizag/unprint/render"
)

const defaultPreviewWidth = 1024

type config struct {
	input  string // empty for stdin
	output string // empty for stdout

	format       render.Format
	formatSet    bool
	legacyRLE    bool
	level        logrus.Level
	previewWidth int
}

// parseArgs interprets the command line the way the original tool did.
func parseArgs(args []string) config {
	var c config
	switch {
	case len(args) == 0:
	case len(args) == 1:
		c.input = args[0]
	case strings.HasPrefix(args[0], "-"):
		c.output = args[1]
	default:
		c.input = args[0]
		c.output = args[1]
	}
	return c
}

func (c *config) loadEnv(getenv func(string) string) error {
	c.level = logrus.WarnLevel
	c.previewWidth = defaultPreviewWidth

	if s := getenv("UNPRINT_FORMAT"); s != "" {
		f, err := render.ParseFormat(s)
		if err != nil {
			return err
		}
		c.format = f
		c.formatSet = true
	}
	if s := getenv("UNPRINT_LOG_LEVEL"); s != "" {
		level, err := logrus.ParseLevel(s)
		if err != nil {
			return err
		}
		c.level = level
	}
	if s := getenv("UNPRINT_LEGACY_RLE"); s != "" {
		legacy, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("UNPRINT_LEGACY_RLE: %w", err)
		}
		c.legacyRLE = legacy
	}
	if s := getenv("UNPRINT_PREVIEW_WIDTH"); s != "" {
		width, err := strconv.Atoi(s)
		if err != nil || width < 0 {
			return fmt.Errorf("UNPRINT_PREVIEW_WIDTH: invalid width %q", s)
		}
		c.previewWidth = width
	}
	return nil
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	c := parseArgs(os.Args[1:])
	if err := c.loadEnv(os.Getenv); err != nil {
		log.Fatal(err)
	}
	log.SetLevel(c.level)

	var in io.ReadCloser
	var err error
	if c.input == "" {
		in, err = capture.NewReader(os.Stdin)
	} else {
		in, err = capture.Open(c.input)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer in.Close()

	interp := escp.New(&escp.Options{
		Logger:               log,
		LegacyRunCompositing: c.legacyRLE,
	})
	if err := interp.Run(in); err != nil {
		log.WithField("offset", offsetOf(err)).Error(err)
		os.Exit(1)
	}

	page := interp.Page()
	if page == nil {
		log.Info("no raster data printed")
		return
	}
	log.Infof("page with %d of %d rows printed", page.Len(), page.Height())

	out := os.Stdout
	if c.output != "" {
		out, err = os.Create(c.output)
		if err != nil {
			log.Fatal(err)
		}
	}
	if !c.formatSet {
		c.format = render.PNG
		if c.output == "" && term.IsTerminal(int(out.Fd())) {
			c.format = render.Sixel
		}
	}

	err = render.Encode(out, page, c.format, &render.Options{MaxWidth: c.previewWidth})
	if err == nil && out != os.Stdout {
		err = out.Close()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func offsetOf(err error) int64 {
	var e *escp.Error
	if errors.As(err, &e) {
		return e.Offset
	}
	return -1
}
