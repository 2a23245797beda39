package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// spinnerInterval is the frame advance rate.
const spinnerInterval = 100 * time.Millisecond

// spinnerFrames cycle while a long operation (dataset load, render) runs.
var spinnerFrames = [...]string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// spinner animates a progress line on stderr until stopped or the context
// is cancelled. All drawing happens on its own goroutine; Stop blocks until
// the line has been erased, so the ui.go print helpers can take over.
type spinner struct {
	ctx  context.Context
	out  io.Writer
	text string
	quit chan struct{}
	idle chan struct{}
	once sync.Once
}

func newSpinnerWithContext(ctx context.Context, text string) *spinner {
	return &spinner{
		ctx:  ctx,
		out:  os.Stderr,
		text: text,
		quit: make(chan struct{}),
		idle: make(chan struct{}),
	}
}

// Start launches the animation goroutine.
func (s *spinner) Start() {
	go s.run()
}

func (s *spinner) run() {
	defer close(s.idle)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.erase()
			return
		case <-s.quit:
			s.erase()
			return
		case <-tick.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.text))
		}
	}
}

// erase clears the spinner's line. Runs on the animation goroutine only.
func (s *spinner) erase() {
	fmt.Fprint(s.out, "\r\x1b[2K")
}

// Stop ends the animation and waits for the line to be erased. Safe to call
// more than once.
func (s *spinner) Stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.idle
}

// StopWithSuccess stops the spinner and prints a success line in its place.
func (s *spinner) StopWithSuccess(text string) {
	s.Stop()
	printSuccess("%s", text)
}

// StopWithError stops the spinner and prints an error line in its place.
func (s *spinner) StopWithError(text string) {
	s.Stop()
	printError("%s", text)
}
