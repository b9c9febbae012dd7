package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where the viewer looks for its config
const DefaultPath = "config.toml"

// BaudRates lists the rates the viewer offers, in cycle order.
var BaudRates = []int{9600, 19200, 38400, 57600, 115200, 230400}

// ErrInvalidBaudRate is returned for a rate outside BaudRates
var ErrInvalidBaudRate = errors.New("unsupported baud rate")

// SerialConfig holds the transport settings
type SerialConfig struct {
	Device        string `toml:"device"`
	BaudRate      int    `toml:"baudrate"`
	FlowControl   bool   `toml:"flowcontrol"`
	ReadTimeoutMS int    `toml:"readtimeoutms"`
}

// DisplayConfig holds settings for the matrix view
type DisplayConfig struct {
	Columns int    `toml:"columns"`
	Rows    int    `toml:"rows"`
	Glyph   string `toml:"glyph"`
}

// LogConfig controls where log output goes
type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Config holds all application configuration
type Config struct {
	Serial  SerialConfig  `toml:"serial"`
	Display DisplayConfig `toml:"display"`
	Log     LogConfig     `toml:"log"`
}

// Default returns the settings used when no config file exists.
// 57600 and 48x16 are what the original board shipped with.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			BaudRate:      57600,
			FlowControl:   true,
			ReadTimeoutMS: 250,
		},
		Display: DisplayConfig{
			Columns: 48,
			Rows:    16,
			Glyph:   "●",
		},
		Log: LogConfig{
			File:  "fakeshades.log",
			Level: "info",
		},
	}
}

// LoadConfig reads the configuration from path on top of Default.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	conf := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return conf, nil
		}
		return conf, err
	}

	if err := toml.Unmarshal(data, &conf); err != nil {
		return conf, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := conf.Validate(); err != nil {
		return conf, err
	}
	return conf, nil
}

// Validate checks values the rest of the program relies on
func (c Config) Validate() error {
	if err := ValidateBaudRate(c.Serial.BaudRate); err != nil {
		return err
	}
	if c.Serial.ReadTimeoutMS < 0 {
		return fmt.Errorf("readtimeoutms must not be negative: %d", c.Serial.ReadTimeoutMS)
	}
	if c.Display.Columns < 0 || c.Display.Columns > 255 || c.Display.Rows < 0 || c.Display.Rows > 255 {
		return fmt.Errorf("display size %dx%d out of range", c.Display.Columns, c.Display.Rows)
	}
	return nil
}

// ValidateBaudRate reports whether rate is one of BaudRates
func ValidateBaudRate(rate int) error {
	for _, r := range BaudRates {
		if r == rate {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrInvalidBaudRate, rate)
}

// NextBaudRate returns the rate after current, wrapping around.
// An unknown rate yields the first entry.
func NextBaudRate(current int) int {
	for i, r := range BaudRates {
		if r == current {
			return BaudRates[(i+1)%len(BaudRates)]
		}
	}
	return BaudRates[0]
}
