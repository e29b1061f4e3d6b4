package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/danielkinahan/dualie/internal/audio"
	"github.com/danielkinahan/dualie/internal/config"
	"github.com/danielkinahan/dualie/internal/gomidi"
	"github.com/danielkinahan/dualie/internal/synth"
	"github.com/danielkinahan/dualie/internal/tui"
)

var (
	deviceName string
	portPrefix string
	backend    string
	headless   bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live from a MIDI input",
	Long: `Open a MIDI input and play it through the synthesizer in real time.

Without --port a virtual MIDI input is created that other applications can
send to. Audio goes to the default output device through oto, or to JACK
when built with -tags jack and run with --backend jack.

Example:
  dualie play --name "Dualie"
  dualie play --port "Arturia" --headless
`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&deviceName, "name", "n", "Dualie", "Name for the virtual MIDI device")
	playCmd.Flags().StringVarP(&portPrefix, "port", "p", "", "Open the MIDI input whose name starts with this instead of a virtual one")
	playCmd.Flags().StringVarP(&backend, "backend", "b", "", "Audio backend, oto or jack (overrides the config)")
	playCmd.Flags().BoolVar(&headless, "headless", false, "Run without the monitor")
	rootCmd.AddCommand(playCmd)
}

// output is a running audio backend.
type output interface {
	Close() error
}

// lateRenderer lets the JACK client exist before the engine, which needs
// the server's sample rate.
type lateRenderer struct {
	engine *synth.Engine
}

func (r *lateRenderer) RenderInterleaved(out []float32, channels int) {
	r.engine.RenderInterleaved(out, channels)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Backend = backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	engine, out, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			debug("close output: %v", err)
		}
	}()

	var in *gomidi.Input
	if portPrefix != "" {
		in, err = gomidi.OpenPort(portPrefix)
	} else {
		in, err = gomidi.OpenVirtual(deviceName)
	}
	if err != nil {
		return err
	}
	defer in.Close()

	if headless || !term.IsTerminal(int(os.Stdout.Fd())) {
		return playHeadless(engine, in)
	}

	curve, _ := synth.ParseCutoffCurve(cfg.CutoffCurve)
	m := tui.NewMonitor(cfg.Backend, in.Name(), curve, engine)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if err := in.Listen(engine, func(ev synth.Event, err error) {
		p.Send(tui.EventMsg{Event: ev, Err: err})
	}); err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running monitor: %w", err)
	}
	return nil
}

func playHeadless(engine *synth.Engine, in *gomidi.Input) error {
	if err := in.Listen(engine, func(ev synth.Event, err error) {
		if err != nil {
			debug("%s: %v", ev, err)
		}
	}); err != nil {
		return err
	}
	fmt.Printf("Listening on %s, press Ctrl+C to stop\n", in.Name())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	engine.Send(synth.Event{Kind: synth.EventAllSoundOff})
	if n := engine.Snapshot().Dropped; n > 0 {
		fmt.Printf("%d events dropped\n", n)
	}
	return nil
}

func openBackend(cfg *config.Config) (*synth.Engine, output, error) {
	switch cfg.Backend {
	case config.BackendJack:
		late := &lateRenderer{}
		// JACK MIDI arrives inside the process callback, so it can be
		// applied directly.
		jo, err := audio.NewJackOutput(deviceName, late, func(data []byte) {
			if ev, ok := gomidi.DecodeBytes(data); ok {
				late.engine.Dispatch(ev)
			}
		})
		if err != nil {
			return nil, nil, err
		}
		cfg.SampleRate = jo.SampleRate()
		engine, err := newEngine(cfg)
		if err != nil {
			jo.Close()
			return nil, nil, err
		}
		late.engine = engine
		if err := jo.Start(); err != nil {
			jo.Close()
			return nil, nil, err
		}
		return engine, jo, nil

	default:
		engine, err := newEngine(cfg)
		if err != nil {
			return nil, nil, err
		}
		player, err := audio.NewPlayer(engine, audio.PlayerOptions{
			SampleRate: cfg.SampleRate,
			Channels:   2,
			Buffer:     time.Duration(cfg.BufferMS) * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		return engine, player, nil
	}
}

func newEngine(cfg *config.Config) (*synth.Engine, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	return synth.NewEngine(opts)
}
