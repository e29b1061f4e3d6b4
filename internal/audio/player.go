// Package audio moves rendered samples to the sound card, to JACK or to disk.
package audio

import (
	"fmt"
	"time"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/ebitengine/oto/v3"
)

var debug = debuggo.Debug("dualie:audio")

const (
	bytesPerSample = 2 // int16
	// largest chunk rendered per pull; oto may ask for more and gets it in pieces
	maxChunkFrames = 1024
)

// Renderer produces interleaved float samples in [-1, 1]. synth.Engine
// satisfies it.
type Renderer interface {
	RenderInterleaved(out []float32, channels int)
}

// PlayerOptions configures the realtime output.
type PlayerOptions struct {
	SampleRate int
	Channels   int
	// Buffer is the device buffer length; zero lets oto decide.
	Buffer time.Duration
}

// Player pulls audio from a Renderer on oto's playback goroutine.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	reader *renderReader
}

// NewPlayer opens the default output device and starts pulling from r.
func NewPlayer(r Renderer, opts PlayerOptions) (*Player, error) {
	if opts.Channels <= 0 {
		opts.Channels = 2
	}
	op := &oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: opts.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   opts.Buffer,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	rr := newRenderReader(r, opts.Channels)
	p := &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(rr),
		reader: rr,
	}
	p.player.Play()
	debug("oto player: %d Hz, %d channels, buffer %s", opts.SampleRate, opts.Channels, opts.Buffer)
	return p, nil
}

// Close stops playback and suspends the device.
func (p *Player) Close() error {
	p.player.Pause()
	if err := p.ctx.Suspend(); err != nil {
		return fmt.Errorf("suspend audio device: %w", err)
	}
	debug("oto player closed")
	return nil
}

// renderReader implements io.Reader for oto. All scratch space is allocated
// up front so Read never allocates.
type renderReader struct {
	src      Renderer
	channels int
	scratch  []float32
}

func newRenderReader(src Renderer, channels int) *renderReader {
	return &renderReader{
		src:      src,
		channels: channels,
		scratch:  make([]float32, maxChunkFrames*channels),
	}
}

func (r *renderReader) Read(buf []byte) (int, error) {
	frameBytes := r.channels * bytesPerSample
	frames := len(buf) / frameBytes
	out := buf
	for frames > 0 {
		n := min(frames, maxChunkFrames)
		samples := r.scratch[:n*r.channels]
		r.src.RenderInterleaved(samples, r.channels)
		PutInt16LE(out, samples)
		out = out[n*frameBytes:]
		frames -= n
	}
	clear(out)
	return len(buf), nil
}
