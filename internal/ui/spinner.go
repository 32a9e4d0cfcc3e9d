package ui

import (
	"fmt"
	"strings"
	"time"
)

// spinnerInterval paces the animation. Chain reads resolve in one or two
// frames on a healthy RPC; slow endpoints keep it visible.
const spinnerInterval = 90 * time.Millisecond

var spinnerFrames = [...]string{"◜", "◠", "◝", "◞", "◡", "◟"}

// Spinner is a stdout progress indicator for blocking chain operations
// outside the full-screen views (reads, broadcasts, confirmation waits).
type Spinner struct {
	msg  string
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(msg string) *Spinner {
	return &Spinner{
		msg:  msg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins the animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			frame := StyleBrand.Render(spinnerFrames[i%len(spinnerFrames)])
			fmt.Printf("\r%s %s", frame, s.msg)
			select {
			case <-s.stop:
				fmt.Printf("\r%s\r", strings.Repeat(" ", len(s.msg)+2))
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the spinner, clears its line, and waits for it to finish.
func (s *Spinner) Stop() {
	close(s.stop)
	<-s.done
}

// StopWithMsg halts the spinner and prints a final message in its place.
func (s *Spinner) StopWithMsg(msg string) {
	s.Stop()
	fmt.Println(msg)
}
