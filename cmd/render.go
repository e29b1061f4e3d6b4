package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielkinahan/dualie/internal/audio"
	"github.com/danielkinahan/dualie/internal/gomidi"
	"github.com/danielkinahan/dualie/internal/synth"
)

const (
	renderChannels    = 2
	renderChunkFrames = 4096
)

var (
	outputPath string
	tail       time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render <in.mid>",
	Short: "Render a Standard MIDI File to WAV",
	Long: `Render a Standard MIDI File offline to a 16-bit stereo WAV file.

All tracks and channels are merged into the one instrument. Tempo changes
are honored. Rendering continues for --tail after the last event so that
releases and reverb ring out.

Example:
  dualie render song.mid -o song.wav --tail 3s
`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "out.wav", "WAV file to write")
	renderCmd.Flags().DurationVar(&tail, "tail", 2*time.Second, "Time to keep rendering after the last event")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	score, err := gomidi.ReadScore(args[0])
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	sr := engine.SampleRate()
	events := score.Frames(sr)
	end := int64((score.Length() + tail.Seconds()) * float64(sr))

	err = writeWAV(outputPath, sr, func(w frameWriter) error {
		return renderEvents(engine, events, end, w)
	})
	if err != nil {
		return err
	}
	if n := engine.Snapshot().Dropped; n > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d notes dropped, all voices busy\n", n)
	}
	fmt.Printf("Wrote %s: %.1fs, %d events\n", outputPath, float64(end)/float64(sr), len(events))
	return nil
}

type frameWriter interface {
	Write(samples []float32) error
}

// writeWAV creates path and fills it through render. The file is removed
// when anything fails, so a partial WAV is never left behind.
func writeWAV(path string, sampleRate int, render func(frameWriter) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w := audio.NewWAVWriter(f, sampleRate, renderChannels)
	if err := render(w); err != nil {
		return err
	}
	return w.Close()
}

// renderEvents plays events into the engine at their frames and writes
// interleaved stereo up to end. Events past end are still applied.
func renderEvents(engine *synth.Engine, events []gomidi.TimedEvent, end int64, w frameWriter) error {
	buf := make([]float32, renderChunkFrames*renderChannels)
	var pos int64
	write := func(until int64) error {
		for pos < until {
			n := int(min(until-pos, renderChunkFrames))
			chunk := buf[:n*renderChannels]
			engine.RenderInterleaved(chunk, renderChannels)
			if err := w.Write(chunk); err != nil {
				return err
			}
			pos += int64(n)
		}
		return nil
	}

	for _, te := range events {
		if err := write(min(te.Frame, end)); err != nil {
			return err
		}
		if err := engine.Dispatch(te.Event); err != nil {
			debug("skip %s: %v", te.Event, err)
		}
	}
	return write(end)
}
