package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-deck/engine"
)

const replHelp = `commands:
  play <deck>              start the deck from its pause offset
  stop <deck>              stop the deck
  seek <deck> <0..1>       jump to a fraction of the track
  rate <deck> <rate>       set playback rate (> 0)
  filter <deck> <0..1>     sweep filter (center = bypass)
  eq <deck> <band> <0..2>  isolator band gain (low, mid, high)
  mute <deck> <stem>       mute one stem
  unmute <deck> <stem>     unmute one stem
  volume <deck> <0..2>     deck fader
  loopin <deck>            capture loop start (beat quantized)
  loopout <deck>           capture loop end and arm the loop
  loopexit <deck>          leave the loop
  fx <x> <y>               master effect pad position (0..1 each)
  master <0..2>            master volume
  sampler <name>           fire a one-shot (airhorn, siren)
  pos                      print deck positions
  help                     this text
  quit                     exit`

// repl reads commands from in and applies them to the engine until EOF
// or quit. Errors are printed and never abort the loop.
func repl(eng *engine.Engine, in io.Reader, out io.Writer, deckIDs []string) {
	fmt.Fprintln(out, replHelp)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		if err := dispatch(eng, out, fields, deckIDs); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func dispatch(eng *engine.Engine, out io.Writer, fields []string, deckIDs []string) error {
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(out, replHelp)
	case "play":
		if len(args) != 1 {
			return fmt.Errorf("usage: play <deck>")
		}
		eng.Play(args[0])
	case "stop":
		if len(args) != 1 {
			return fmt.Errorf("usage: stop <deck>")
		}
		eng.Stop(args[0])
	case "seek":
		f, err := oneFloat(args, "seek <deck> <0..1>")
		if err != nil {
			return err
		}
		eng.Seek(args[0], f)
	case "rate":
		f, err := oneFloat(args, "rate <deck> <rate>")
		if err != nil {
			return err
		}
		return eng.SetPlaybackRate(args[0], f)
	case "filter":
		f, err := oneFloat(args, "filter <deck> <0..1>")
		if err != nil {
			return err
		}
		eng.SetFilter(args[0], f)
	case "eq":
		if len(args) != 3 {
			return fmt.Errorf("usage: eq <deck> <band> <0..2>")
		}
		gain, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("bad gain %q", args[2])
		}
		return eng.SetEQ(args[0], args[1], gain)
	case "mute", "unmute":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <deck> <stem>", cmd)
		}
		eng.MuteStem(args[0], args[1], cmd == "mute")
	case "volume":
		f, err := oneFloat(args, "volume <deck> <0..2>")
		if err != nil {
			return err
		}
		eng.SetVolume(args[0], f)
	case "loopin":
		if len(args) != 1 {
			return fmt.Errorf("usage: loopin <deck>")
		}
		eng.LoopIn(args[0])
	case "loopout":
		if len(args) != 1 {
			return fmt.Errorf("usage: loopout <deck>")
		}
		eng.LoopOut(args[0])
	case "loopexit":
		if len(args) != 1 {
			return fmt.Errorf("usage: loopexit <deck>")
		}
		eng.LoopExit(args[0])
	case "fx":
		if len(args) != 2 {
			return fmt.Errorf("usage: fx <x> <y>")
		}
		x, errX := strconv.ParseFloat(args[0], 64)
		y, errY := strconv.ParseFloat(args[1], 64)
		if errX != nil || errY != nil {
			return fmt.Errorf("bad pad position %q %q", args[0], args[1])
		}
		eng.SetMasterEffect(x, y)
	case "master":
		if len(args) != 1 {
			return fmt.Errorf("usage: master <0..2>")
		}
		gain, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("bad gain %q", args[0])
		}
		eng.SetMasterVolume(gain)
	case "sampler":
		if len(args) != 1 {
			return fmt.Errorf("usage: sampler <name>")
		}
		return eng.PlaySampler(args[0])
	case "pos":
		for _, id := range deckIDs {
			state := "stopped"
			if eng.IsPlaying(id) {
				state = "playing"
			}
			fmt.Fprintf(out, "deck %s: %8.3f s (%s)\n", id, eng.Position(id), state)
		}
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}

	return nil
}

// oneFloat parses the <deck> <value> argument shape.
func oneFloat(args []string, usage string) (float64, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	f, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", args[1])
	}

	return f, nil
}
