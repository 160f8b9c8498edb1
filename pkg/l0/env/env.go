// Package env provides configuration of the L0 firmware.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/robotalks/xmem.go/pkg/board"
	"github.com/robotalks/xmem.go/pkg/l0/comm"
)

// Version is set at link time:
//
//	-ldflags "-X github.com/robotalks/xmem.go/pkg/l0/env.Version=$(git describe)"
var Version = "dev"

// Config defines the options of the firmware.
type Config struct {
	Board string
	// ProbeSize is the SDRAM verify probe in bytes, 0 to skip.
	ProbeSize int

	// Transport is the URL of the serial byte source.
	Transport string
	// Overwrite drops chunks the parser is too slow to take.
	Overwrite bool

	Sentinel         string
	PayloadOffset    int
	TerminatorOffset int
	Terminator       string
	MaxLen           int
}

var defaultConfig = Config{
	Board:            board.GigaR1.Name,
	ProbeSize:        64,
	Transport:        "-",
	Sentinel:         "0x00",
	PayloadOffset:    5,
	TerminatorOffset: 6,
	Terminator:       "\r\n",
}

func init() {
	if val := os.Getenv("XMEM_BOARD"); val != "" {
		defaultConfig.Board = val
	}
	if val := os.Getenv("XMEM_TRANSPORT"); val != "" {
		defaultConfig.Transport = val
	}
	if val := os.Getenv("XMEM_SENTINEL"); val != "" {
		defaultConfig.Sentinel = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Board, "board", defaultConfig.Board, "Board profile.")
	flag.IntVar(&defaultConfig.ProbeSize, "probe", defaultConfig.ProbeSize, "SDRAM verify probe size in bytes, 0 to skip.")
	flag.StringVar(&defaultConfig.Transport, "transport", defaultConfig.Transport, "Transport URL: file://DEV, tcp://HOST:PORT, ws://HOST/PATH or - for stdin.")
	flag.BoolVar(&defaultConfig.Overwrite, "overwrite", defaultConfig.Overwrite, "Drop chunks instead of waiting for the parser.")
	flag.StringVar(&defaultConfig.Sentinel, "sentinel", defaultConfig.Sentinel, "Message sentinel: a character, an escape like \\n or a hex value like 0x00.")
	flag.IntVar(&defaultConfig.PayloadOffset, "payload-offset", defaultConfig.PayloadOffset, "Offset of the payload byte in a chunk.")
	flag.IntVar(&defaultConfig.TerminatorOffset, "terminator-offset", defaultConfig.TerminatorOffset, "Offset of the terminator in a chunk.")
	flag.IntVar(&defaultConfig.MaxLen, "max-len", defaultConfig.MaxLen, "Maximum message length, 0 for unlimited.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ParseSentinel parses a sentinel given as a single character, an
// escape sequence or a hex value.
func ParseSentinel(s string) (byte, error) {
	switch {
	case len(s) == 1:
		return s[0], nil
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		val, err := strconv.ParseUint(s[2:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid sentinel %q: %v", s, err)
		}
		return byte(val), nil
	case strings.HasPrefix(s, `\`):
		val, _, tail, err := strconv.UnquoteChar(s, '\'')
		if err != nil || tail != "" || val > 0xff {
			return 0, fmt.Errorf("invalid sentinel %q", s)
		}
		return byte(val), nil
	}
	return 0, fmt.Errorf("invalid sentinel %q", s)
}

// Profile looks up the board profile.
func (c *Config) Profile() (*board.Profile, error) {
	p, ok := board.Lookup(c.Board)
	if !ok {
		return nil, fmt.Errorf("unknown board %q", c.Board)
	}
	return p, nil
}

// FramerConfig builds the framer layout.
func (c *Config) FramerConfig() (comm.FramerConfig, error) {
	sentinel, err := ParseSentinel(c.Sentinel)
	if err != nil {
		return comm.FramerConfig{}, err
	}
	fc := comm.NewFramerConfig(sentinel)
	fc.PayloadOffset = c.PayloadOffset
	fc.TerminatorOffset = c.TerminatorOffset
	fc.Terminator = []byte(c.Terminator)
	fc.MaxLen = c.MaxLen
	if err := fc.Validate(); err != nil {
		return fc, fmt.Errorf("invalid framer config: %v", err)
	}
	return fc, nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if _, err := c.Profile(); err != nil {
		return err
	}
	if c.ProbeSize < 0 {
		return fmt.Errorf("invalid probe size %d", c.ProbeSize)
	}
	if c.Transport == "" {
		return fmt.Errorf("transport required")
	}
	_, err := c.FramerConfig()
	return err
}

// MustProfile looks up the board profile and fails on error.
func (c *Config) MustProfile() *board.Profile {
	p, err := c.Profile()
	if err != nil {
		log.Fatalln(err)
	}
	return p
}

// MustFramerConfig builds the framer layout and fails on error.
func (c *Config) MustFramerConfig() comm.FramerConfig {
	fc, err := c.FramerConfig()
	if err != nil {
		log.Fatalln(err)
	}
	return fc
}

// Banner is the boot greeting.
func Banner(name string) string {
	return fmt.Sprintf("%s %s", name, Version)
}
