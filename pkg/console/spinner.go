package console

import (
	"fmt"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows activity on stdout while files are decoded. It is inert when
// stdout is not a terminal, so piped output stays clean.
type Spinner struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	label   string
}

// NewSpinner creates a spinner with the given label.
func NewSpinner(label string) *Spinner {
	s := &Spinner{label: label}
	if isTTY() {
		s.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.spinner.Suffix = " " + label
		_ = s.spinner.Color("cyan")
	}
	return s
}

// Start begins the animation.
func (s *Spinner) Start() {
	if s.spinner != nil {
		s.spinner.Start()
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	if s.spinner != nil {
		s.spinner.Stop()
	}
}

// Progress appends a done/total counter to the label. It is safe to call
// from several goroutines.
func (s *Spinner) Progress(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spinner != nil {
		s.spinner.Lock()
		s.spinner.Suffix = fmt.Sprintf(" %s (%d/%d)", s.label, done, total)
		s.spinner.Unlock()
	}
}

// Enabled reports whether the spinner draws anything.
func (s *Spinner) Enabled() bool {
	return s.spinner != nil
}
