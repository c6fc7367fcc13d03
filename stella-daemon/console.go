package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antongulenko/stella/stella"
	"github.com/chzyer/readline"
)

var errQuit = errors.New("quit")

const consoleHelp = `Commands:
  set <ch> <value>      Set brightness immediately
  fade <ch> <value>     Fade to value
  flash <ch> <value>    Set brightness immediately and fade to 0
  rel <ch> <delta>      Add a (negative) delta to the brightness
  all <value>           Fade all channels to value
  dmx <mode> <v0> ...   Apply a control frame
  step [n]              Show or set the fade step
  func [name]           Show or set the fade function (linear, exponential)
  show                  Show brightness and fade target of all channels
  table                 Show the active timetable
  save                  Store the fade targets
  load                  Restore the stored values without fading
  help                  Show this help
  quit                  Exit`

var setCommands = map[string]stella.SetFunction{
	"set":   stella.SetImmediately,
	"fade":  stella.SetFade,
	"flash": stella.SetFlashy,
	"rel":   stella.SetImmediatelyRelative,
}

type Console struct {
	runner *stella.Runner
	rl     *readline.Instance
}

func NewConsole(runner *stella.Runner) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "stella> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to create readline: %v", err)
	}
	return &Console{runner: runner, rl: rl}, nil
}

// Stdout coordinates output with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads commands until the user quits or ctx is cancelled. cancel is called when the user quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()
	out := c.rl.Stdout()
	fmt.Fprintln(out, consoleHelp)
	for ctx.Err() == nil {
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			cancel()
			return
		}
		if err := c.execute(out, line); err == errQuit {
			cancel()
			return
		} else if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func (c *Console) execute(out io.Writer, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	if fn, ok := setCommands[cmd]; ok {
		return c.set(cmd, fn, args)
	}
	switch cmd {
	case "all":
		if len(args) != 1 {
			return errors.New("Usage: all <value>")
		}
		value, err := parseByte(args[0])
		if err != nil {
			return err
		}
		c.runner.Do(func(e *stella.Engine) {
			e.FadeAll(value)
		})
	case "dmx":
		if len(args) < 2 {
			return errors.New("Usage: dmx <mode> <v0> ...")
		}
		frame := make([]byte, len(args))
		for i, arg := range args {
			b, err := parseByte(arg)
			if err != nil {
				return err
			}
			frame[i] = b
		}
		c.runner.Dmx(frame)
	case "step":
		return c.step(out, args)
	case "func":
		return c.fadeFunc(out, args)
	case "show":
		c.show(out)
	case "table":
		c.runner.Do(func(e *stella.Engine) {
			fmt.Fprint(out, e.ActiveTable())
		})
	case "save":
		c.runner.Do((*stella.Engine).Save)
	case "load":
		c.runner.Do((*stella.Engine).Load)
	case "help":
		fmt.Fprintln(out, consoleHelp)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("Unknown command: %s (type 'help' for commands)", cmd)
	}
	return nil
}

func (c *Console) set(cmd string, fn stella.SetFunction, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("Usage: %v <channel> <value>", cmd)
	}
	channel, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	var value uint8
	if fn == stella.SetImmediatelyRelative {
		delta, err := strconv.ParseInt(args[1], 10, 8)
		if err != nil {
			return err
		}
		value = uint8(int8(delta))
	} else if value, err = parseByte(args[1]); err != nil {
		return err
	}
	var count int
	c.runner.Do(func(e *stella.Engine) {
		count = e.ChannelCount()
		e.SetValue(fn, channel, value)
	})
	if channel < 0 || channel >= count {
		return fmt.Errorf("Channel %v out of range (%v channels)", channel, count)
	}
	return nil
}

func (c *Console) step(out io.Writer, args []string) error {
	if len(args) == 0 {
		c.runner.Do(func(e *stella.Engine) {
			fmt.Fprintf(out, "Fade step: %v\n", e.FadeStep())
		})
		return nil
	}
	step, err := parseByte(args[0])
	if err != nil {
		return err
	}
	c.runner.Do(func(e *stella.Engine) {
		e.SetFadeStep(step)
	})
	return nil
}

func (c *Console) fadeFunc(out io.Writer, args []string) (err error) {
	if len(args) == 0 {
		c.runner.Do(func(e *stella.Engine) {
			fmt.Fprintf(out, "Fade function: %v\n", e.FadeFunc())
		})
		return nil
	}
	id, err := stella.ParseFadeFunc(args[0])
	if err != nil {
		return err
	}
	c.runner.Do(func(e *stella.Engine) {
		err = e.SetFadeFunc(id)
	})
	return
}

func (c *Console) show(out io.Writer) {
	c.runner.Do(func(e *stella.Engine) {
		for ch := 0; ch < e.ChannelCount(); ch++ {
			port, mask := e.ChannelPin(ch)
			fmt.Fprintf(out, "%2d (port %v, pin %08b): %3d -> %3d\n", ch, e.Ports()[port].Name, mask, e.Value(ch), e.FadeTarget(ch))
		}
		fmt.Fprintf(out, "Sync: %v\n", e.Sync())
	})
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid value %q (expected 0-255)", s)
	}
	return uint8(v), nil
}
