package sh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
)

var (
	// BootCmd runs the boot sequence.
	BootCmd = ishell.Cmd{
		Name:    "boot",
		Aliases: []string{"b"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			report, err := s.Board.Boot()
			if err != nil {
				c.Err(err)
				return
			}
			s.Shell.SetPrompt(fmt.Sprintf("%s > ", s.Board.Profile.Name))
			s.Output(c, report, fmt.Sprintf("SDRAM %#.8x+%#x verified=%v", report.Base, report.Size, report.Verified))
		},
	}

	// RegionCmd shows the protected region.
	RegionCmd = ishell.Cmd{
		Name:    "region",
		Aliases: []string{"r"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			desc, enabled := s.Board.Region()
			if !enabled {
				c.Println("region disabled")
				return
			}
			s.Output(c, desc, desc.String())
		},
	}

	// PeekCmd reads a word.
	PeekCmd = ishell.Cmd{
		Name:    "peek",
		Aliases: []string{"rd"},
		Help:    "ADDR",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ADDR required"))
				return
			}
			addr, err := ParseWord(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%#.8x: %#.8x\n", addr, ShellFrom(c).Board.Peek(addr))
		},
	}

	// PokeCmd writes a word.
	PokeCmd = ishell.Cmd{
		Name:    "poke",
		Aliases: []string{"wr"},
		Help:    "ADDR VALUE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("ADDR and VALUE required"))
				return
			}
			addr, err := ParseWord(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			val, err := ParseWord(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Board.Poke(addr, val)
		},
	}

	// VerifyCmd probes the SDRAM window.
	VerifyCmd = ishell.Cmd{
		Name:    "verify",
		Aliases: []string{"v"},
		Help:    "[PROBE_SIZE]",
		Func: MustBeBooted(func(c *ishell.Context) {
			size := 64
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid PROBE_SIZE: %v", err))
					return
				}
				size = n
			}
			if err := ShellFrom(c).Board.Verify(size); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// FeedCmd feeds raw chunks into the framer.
	FeedCmd = ishell.Cmd{
		Name:    "feed",
		Aliases: []string{"f"},
		Help:    "CHUNK...",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			for _, arg := range c.Args {
				msg, err := s.Board.Feed(ParseChunk(arg))
				if err != nil {
					c.Err(err)
					continue
				}
				if msg != nil {
					c.Println(msg.String())
				}
			}
		},
	}

	// SendCmd feeds text one byte per chunk.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			for _, msg := range s.Board.Send(ParseChunk(strings.Join(c.Args, " "))) {
				c.Println(msg.String())
			}
		},
	}

	// PartialCmd shows the message being assembled.
	PartialCmd = ishell.Cmd{
		Name:    "partial",
		Aliases: []string{"p"},
		Help:    "",
		Func: func(c *ishell.Context) {
			c.Println(strconv.Quote(string(ShellFrom(c).Board.Parser.Partial())))
		},
	}

	// StatsCmd shows parser counters.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			st := s.Board.Parser.Stats()
			s.Output(c, st, fmt.Sprintf("chunks=%d messages=%d bad-size=%d no-terminator=%d too-long=%d partial=%d",
				st.Chunks, st.Messages, st.BadSize, st.NoTerminator, st.TooLong, st.PartialLength))
		},
	}

	// MessagesCmd lists completed messages.
	MessagesCmd = ishell.Cmd{
		Name:    "messages",
		Aliases: []string{"m"},
		Help:    "",
		Func: func(c *ishell.Context) {
			for _, msg := range ShellFrom(c).Board.Messages() {
				c.Println(msg.String())
			}
		},
	}
)
