//go:build !jack

package audio

import "errors"

// ErrNoJack is returned when the binary was built without the jack tag.
var ErrNoJack = errors.New("JACK support not enabled, rebuild with -tags jack")

// JackOutput is unavailable in this build.
type JackOutput struct{}

func NewJackOutput(name string, src Renderer, onMIDI func([]byte)) (*JackOutput, error) {
	return nil, ErrNoJack
}

func (j *JackOutput) SampleRate() int { return 0 }
func (j *JackOutput) Start() error    { return ErrNoJack }
func (j *JackOutput) Stop() error     { return ErrNoJack }
func (j *JackOutput) Close() error    { return ErrNoJack }
