// Command audinux-play is a headless player: it loads a file, optionally
// installs an A-B loop, plays to the end (or forever when looping), and
// prints playhead and loop activity to stdout.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/audinux/audinux"
)

func main() {
	var (
		rate       = flag.Float64("rate", 1.0, "playback rate (0.25..4.0)")
		volume     = flag.Int("volume", 100, "volume percent (0..100)")
		loopStart  = flag.Int64("loop-start", -1, "loop start in ms; use with -loop-end")
		loopEnd    = flag.Int64("loop-end", -1, "loop end in ms")
		loops      = flag.Int("loops", 0, "when looping, stop after N passes (0 = forever)")
		listOnly   = flag.Bool("markers", false, "print the file's markers and exit")
		noSettings = flag.Bool("no-settings", false, "do not read or write persisted settings")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: audinux-play [flags] <audio file>")
	}
	path := flag.Arg(0)

	var opts []audinux.SessionOption
	if *noSettings {
		opts = append(opts, audinux.WithSettingsPath(""))
	}
	s := audinux.NewSession(opts...)
	defer s.Close()

	events := s.Events()
	if err := s.Load(path); err != nil {
		log.Fatal(err)
	}

	if *listOnly {
		for _, m := range s.Markers() {
			fmt.Printf("%10d  %s\n", m.Ms, m.Name)
		}
		return
	}

	s.SetRate(*rate)
	s.SetVolume(*volume)
	if *loopStart >= 0 && *loopEnd >= 0 {
		if err := s.LoopBetween(*loopStart, *loopEnd); err != nil {
			log.Fatal(err)
		}
	}

	info, _ := s.Track()
	ph := s.Playhead()
	fmt.Printf("playing %s (%s)\n", info.Title, ph.DurationLabel)
	s.Play()

	loopCount := 0
	lastLabel := ""
	for ev := range events {
		switch ev.Kind {
		case audinux.EventPlayhead:
			ph := s.Playhead()
			if ph.PositionLabel != lastLabel {
				lastLabel = ph.PositionLabel
				fmt.Printf("\r%s / %s ", ph.PositionLabel, ph.DurationLabel)
			}
			if _, looping := s.Loop(); !looping && ph.PositionMs >= ph.DurationMs {
				fmt.Println("\nplayback completed")
				return
			}
		case audinux.EventLoopSeek:
			loopCount++
			fmt.Printf("\nloop %d completed\n", loopCount)
			if *loops > 0 && loopCount >= *loops {
				return
			}
		}
	}
}
