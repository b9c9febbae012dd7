// Command shadesdump decodes a captured byte stream and prints each matrix.
//
//	cat /dev/ttyUSB0 > capture.bin
//	shadesdump capture.bin
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"fakeshades/device/shades"
	"fakeshades/logging"
	"fakeshades/matrix"

	"github.com/rs/zerolog/log"
)

const hexDigits = "0123456789abcdef"

func main() {
	level := flag.String("log", "info", "log level")
	limit := flag.Int("n", 0, "stop after n frames, 0 for all")
	flag.Parse()

	logging.Init(os.Stderr, "shadesdump", logging.ParseLevel(*level))

	var in io.Reader = os.Stdin
	if path := flag.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to open capture")
		}
		defer f.Close()
		in = f
	}

	stats, err := dump(os.Stdout, in, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("decode failed")
	}
	log.Info().
		Int("frames", stats.Frames).
		Int("desyncs", stats.Desyncs).
		Int("aborted", stats.Aborted).
		Int("bytes", stats.Bytes).
		Msg("done")
}

// dump decodes every frame in r and renders it to w
func dump(w io.Writer, r io.Reader, limit int) (shades.Stats, error) {
	sr := shades.NewStreamReader(r)
	for n := 0; limit == 0 || n < limit; n++ {
		m, err := sr.ReadMatrix()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sr.Stats(), err
		}
		fmt.Fprintf(w, "frame %d: %dx%d\n%s\n", n+1, m.Columns, m.Rows, render(m))
	}
	return sr.Stats(), nil
}

// render draws m with one hex digit per cell, row 0 first
func render(m *matrix.Matrix) string {
	var b strings.Builder
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Columns; c++ {
			v := m.At(c, r)
			if v == 0 {
				b.WriteByte('.')
				continue
			}
			b.WriteByte(hexDigits[v])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
