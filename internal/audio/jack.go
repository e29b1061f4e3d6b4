//go:build jack

package audio

import (
	"fmt"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/xthexder/go-jack"
)

var jackDebug = debuggo.Debug("dualie:jack")

// JackOutput is a JACK client with one mono audio output and one MIDI input.
// The renderer runs inside the JACK process callback, so incoming MIDI is
// handed to OnMIDI on that same goroutine before the buffer is rendered.
type JackOutput struct {
	client  *jack.Client
	audio   *jack.Port
	midi    *jack.Port
	src     Renderer
	onMIDI  func([]byte)
	scratch []float32
}

// NewJackOutput registers the ports and installs the process callback.
// onMIDI may be nil.
func NewJackOutput(name string, src Renderer, onMIDI func([]byte)) (*JackOutput, error) {
	jackDebug("opening client %q", name)
	client, status := jack.ClientOpen(name, jack.NoStartServer)
	if status != 0 || client == nil {
		return nil, fmt.Errorf("open JACK client %q: status %d", name, status)
	}
	audioPort := client.PortRegister("audio_out", jack.DEFAULT_AUDIO_TYPE, jack.PortIsOutput, 0)
	if audioPort == nil {
		client.Close()
		return nil, fmt.Errorf("register audio port on %q", name)
	}
	midiPort := client.PortRegister("midi_in", jack.DEFAULT_MIDI_TYPE, jack.PortIsInput, 0)
	if midiPort == nil {
		client.Close()
		return nil, fmt.Errorf("register MIDI port on %q", name)
	}

	j := &JackOutput{
		client:  client,
		audio:   audioPort,
		midi:    midiPort,
		src:     src,
		onMIDI:  onMIDI,
		scratch: make([]float32, client.GetBufferSize()),
	}
	if code := client.SetProcessCallback(j.process); code != 0 {
		client.Close()
		return nil, fmt.Errorf("set JACK process callback: code %d", code)
	}
	jackDebug("client ready: %d Hz, buffer %d", client.GetSampleRate(), client.GetBufferSize())
	return j, nil
}

// SampleRate is the rate imposed by the JACK server.
func (j *JackOutput) SampleRate() int { return int(j.client.GetSampleRate()) }

func (j *JackOutput) Start() error {
	if code := j.client.Activate(); code != 0 {
		return fmt.Errorf("activate JACK client: code %d", code)
	}
	jackDebug("activated")
	return nil
}

func (j *JackOutput) Stop() error {
	if code := j.client.Deactivate(); code != 0 {
		return fmt.Errorf("deactivate JACK client: code %d", code)
	}
	jackDebug("deactivated")
	return nil
}

func (j *JackOutput) Close() error {
	if code := j.client.Close(); code != 0 {
		return fmt.Errorf("close JACK client: code %d", code)
	}
	return nil
}

func (j *JackOutput) process(nframes uint32) int {
	if j.onMIDI != nil {
		for _, ev := range j.midi.GetMidiEvents(nframes) {
			j.onMIDI(ev.Buffer)
		}
	}

	out := j.audio.GetBuffer(nframes)
	n := min(len(out), len(j.scratch))
	j.src.RenderInterleaved(j.scratch[:n], 1)
	for i := range n {
		out[i] = jack.AudioSample(j.scratch[i])
	}
	clear(out[n:])
	return 0
}
