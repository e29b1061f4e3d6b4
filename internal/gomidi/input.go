package gomidi

import (
	"fmt"
	"strings"

	"github.com/GeoffreyPlitt/debuggo"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/danielkinahan/dualie/internal/synth"
)

var debug = debuggo.Debug("dualie:midi")

// Sink receives decoded events. synth.Engine satisfies it.
type Sink interface {
	Send(ev synth.Event) error
}

// Observer is told about every decoded event and the result of handing it
// to the Sink. It runs on the driver's goroutine.
type Observer func(ev synth.Event, err error)

// Input is one open rtmidi input port.
type Input struct {
	driver *rtmididrv.Driver
	port   drivers.In
	stop   func()
}

// OpenVirtual creates a virtual input port other applications can send to.
func OpenVirtual(name string) (*Input, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	port, err := driver.OpenVirtualIn(name)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to create virtual MIDI port: %w", err)
	}
	debug("virtual port %q open", name)
	return &Input{driver: driver, port: port}, nil
}

// OpenPort opens the first hardware input whose name starts with prefix.
func OpenPort(prefix string) (*Input, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	ins, err := driver.Ins()
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), prefix) {
			continue
		}
		if err := in.Open(); err != nil {
			driver.Close()
			return nil, fmt.Errorf("open MIDI input %q: %w", in.String(), err)
		}
		debug("port %q open", in.String())
		return &Input{driver: driver, port: in}, nil
	}
	driver.Close()
	return nil, fmt.Errorf("no MIDI input starting with %q", prefix)
}

// Name is the driver's name for the port.
func (in *Input) Name() string { return in.port.String() }

// Listen decodes every incoming message and forwards it to sink. observe
// may be nil.
func (in *Input) Listen(sink Sink, observe Observer) error {
	stop, err := midi.ListenTo(in.port, func(msg midi.Message, _ int32) {
		ev, ok := Decode(msg)
		if !ok {
			return
		}
		err := sink.Send(ev)
		if observe != nil {
			observe(ev, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to listen to MIDI port: %w", err)
	}
	in.stop = stop
	return nil
}

// Close stops listening and releases the port and the driver.
func (in *Input) Close() error {
	if in.stop != nil {
		in.stop()
	}
	err := in.port.Close()
	in.driver.Close()
	debug("port %q closed", in.port.String())
	return err
}

// InPorts lists the names of the available MIDI inputs.
func InPorts() ([]string, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	defer driver.Close()
	ins, err := driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}
