// Command testgen writes test frames to a serial port so the viewer can be
// exercised without the LED controller attached. Point it at one end of a
// virtual null-modem pair (e.g. socat pty,raw,echo=0 pty,raw,echo=0).
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"fakeshades/config"
	"fakeshades/device/shades"
	"fakeshades/logging"
	"fakeshades/matrix"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.toml")
	device := flag.String("device", "", "serial port or host:port, overrides config")
	baud := flag.Int("baud", 0, "baud rate, overrides config")
	pattern := flag.String("pattern", "ramp", "ramp, checker, noise or sweep")
	columns := flag.Int("columns", 2, "matrix columns")
	rows := flag.Int("rows", 16, "matrix rows")
	count := flag.Int("count", 1, "frames to send, 0 for no limit")
	interval := flag.Duration("interval", 200*time.Millisecond, "delay between frames")
	garbage := flag.Int("garbage", 0, "random bytes to send before each frame")
	level := flag.String("log", "info", "log level")
	flag.Parse()

	logging.Init(os.Stderr, "testgen", logging.ParseLevel(*level))

	conf, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	if *device != "" {
		conf.Serial.Device = *device
	}
	if *baud != 0 {
		conf.Serial.BaudRate = *baud
	}

	gen, err := newGenerator(*pattern, *columns, *rows, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Fatal().Err(err).Msg("bad pattern")
	}

	conn, err := shades.Connect(conf.Serial)
	if err != nil {
		log.Fatal().Err(&shades.ConnectionError{Device: conf.Serial.Device, Err: err}).Msg("failed to open port")
	}
	defer conn.Close()

	log.Info().
		Str("device", conf.Serial.Device).
		Int("baud", conf.Serial.BaudRate).
		Str("pattern", *pattern).
		Msg("sending frames")

	for i := 0; *count == 0 || i < *count; i++ {
		if *garbage > 0 {
			if _, err := conn.Write(gen.noise(*garbage)); err != nil {
				log.Fatal().Err(err).Msg("write failed")
			}
		}
		m := gen.frame(i)
		if err := shades.WriteFrame(conn, m); err != nil {
			log.Fatal().Err(err).Int("frame", i).Msg("write failed")
		}
		log.Debug().Int("frame", i).Int("columns", m.Columns).Int("rows", m.Rows).Msg("frame sent")

		if *count == 0 || i < *count-1 {
			time.Sleep(*interval)
		}
	}
}

// generator builds the frames for one pattern
type generator struct {
	pattern string
	columns int
	rows    int
	rng     *rand.Rand
}

func newGenerator(pattern string, columns, rows int, rng *rand.Rand) (*generator, error) {
	switch pattern {
	case "ramp", "checker", "noise", "sweep":
	default:
		return nil, fmt.Errorf("unknown pattern %q", pattern)
	}
	if columns < 1 || columns > 255 || rows < 1 || rows > 255 {
		return nil, fmt.Errorf("size %dx%d: %w", columns, rows, shades.ErrDimensions)
	}
	return &generator{pattern: pattern, columns: columns, rows: rows, rng: rng}, nil
}

// frame returns the n-th matrix of the pattern
func (g *generator) frame(n int) *matrix.Matrix {
	m := matrix.New(g.columns, g.rows)
	for c := 0; c < g.columns; c++ {
		for r := 0; r < g.rows; r++ {
			var v int
			switch g.pattern {
			case "ramp":
				// Each column fades in from the bottom.
				v = (g.rows - 1 - r) % (matrix.MaxBrightness + 1)
			case "checker":
				if (c+r+n)%2 == 0 {
					v = matrix.MaxBrightness
				}
			case "noise":
				v = g.rng.Intn(matrix.MaxBrightness + 1)
			case "sweep":
				d := c - n%g.columns
				if d < 0 {
					d = -d
				}
				v = matrix.MaxBrightness - 3*d
				if v < 0 {
					v = 0
				}
			}
			m.Cells[c][r] = uint8(v)
		}
	}
	return m
}

// noise returns n random bytes that never contain a full header
func (g *generator) noise(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		b := byte(g.rng.Intn(256))
		if b == shades.Header[len(shades.Header)-1] {
			b = 0
		}
		out[i] = b
	}
	return out
}
