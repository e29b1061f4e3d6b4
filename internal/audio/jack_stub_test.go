//go:build !jack

package audio

import (
	"errors"
	"testing"
)

func TestJackStub(t *testing.T) {
	j, err := NewJackOutput("dualie", &rampRenderer{}, nil)
	if !errors.Is(err, ErrNoJack) || j != nil {
		t.Fatalf("Expected ErrNoJack, got %v", err)
	}
	var stub JackOutput
	for _, f := range []func() error{stub.Start, stub.Stop, stub.Close} {
		if err := f(); !errors.Is(err, ErrNoJack) {
			t.Errorf("Expected ErrNoJack, got %v", err)
		}
	}
}
