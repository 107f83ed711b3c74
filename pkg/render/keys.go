package render

import (
	"context"
	"io"
)

// Controls is the subset of replay operations driven from the keyboard
type Controls interface {
	Play()
	Pause()
	Paused() bool
	SetSpeed(speed float64)
	Speed() float64
	SeekBy(delta float64)
}

const (
	seekStep = 10.0 // seconds per arrow key press
	minSpeed = 0.25
	maxSpeed = 64.0

	keyEsc   = 0x1b
	keyCtrlC = 0x03
)

// RunKeyLoop reads single keystrokes from in (which must be in raw mode)
// and maps them onto ctrl. It returns on 'q', Ctrl-C, a read error or
// when ctx is done.
func RunKeyLoop(ctx context.Context, in io.Reader, ctrl Controls) error {
	keys := make(chan byte)
	errs := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := in.Read(buf); err != nil {
				errs <- err
				return
			}
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()

	// arrow keys arrive as ESC [ A..D
	esc := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err == io.EOF {
				return nil
			}
			return err
		case key := <-keys:
			switch esc {
			case 1:
				if key == '[' {
					esc = 2
				} else {
					esc = 0
				}
				continue
			case 2:
				esc = 0
				handleArrow(ctrl, key)
				continue
			}
			if key == keyEsc {
				esc = 1
				continue
			}
			if done := handleKey(ctrl, key); done {
				return nil
			}
		}
	}
}

func handleKey(ctrl Controls, key byte) bool {
	switch key {
	case 'q', keyCtrlC:
		return true
	case ' ', 'p':
		if ctrl.Paused() {
			ctrl.Play()
		} else {
			ctrl.Pause()
		}
	case 'f', '+':
		ctrl.SetSpeed(min(ctrl.Speed()*2, maxSpeed))
	case 'r', '-':
		ctrl.SetSpeed(max(ctrl.Speed()/2, minSpeed))
	case '1':
		ctrl.SetSpeed(1)
	}
	return false
}

func handleArrow(ctrl Controls, key byte) {
	switch key {
	case 'A': // up
		ctrl.SetSpeed(min(ctrl.Speed()*2, maxSpeed))
	case 'B': // down
		ctrl.SetSpeed(max(ctrl.Speed()/2, minSpeed))
	case 'C': // right
		ctrl.SeekBy(seekStep)
	case 'D': // left
		ctrl.SeekBy(-seekStep)
	}
}
