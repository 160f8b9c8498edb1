// Package sh is an interactive console over a simulated board.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/xmem.go/pkg/l0/env"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Board *Board
}

const (
	shellKey    = "$shell"
	resetPrompt = "[reset] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&BootCmd,
		&RegionCmd,
		&PeekCmd,
		&PokeCmd,
		&VerifyCmd,
		&FeedCmd,
		&SendCmd,
		&PartialCmd,
		&StatsCmd,
		&MessagesCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(b *Board) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Board: b,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(resetPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeBooted wraps command func requires a booted board.
func MustBeBooted(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Board.Report() == nil {
			c.Err(ErrNotBooted)
			return
		}
		fn(c)
	}
}

// Output prints v as JSON in JSON mode, otherwise as text.
func (s *Shell) Output(c *ishell.Context, v interface{}, text string) {
	if !s.OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParseWord parses a 32-bit value in decimal, 0x hex or 0 octal.
func ParseWord(s string) (uint32, error) {
	val, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return uint32(val), nil
}

// ParseChunk accepts a chunk as Go quoted string, e.g. "ABCDEH\r\n",
// or as plain text.
func ParseChunk(s string) []byte {
	if unquoted, err := strconv.Unquote(s); err == nil {
		return []byte(unquoted)
	}
	return []byte(s)
}

// Main is a helper to provide a single call in main.
func Main() {
	env.SetupFlags()
	flag.Parse()
	conf := env.NewConfig()
	b, err := NewBoard(conf.MustProfile(), conf.MustFramerConfig(), conf.ProbeSize)
	if err != nil {
		log.Fatalln(err)
	}
	New(b).Run(flag.Args()...)
}
