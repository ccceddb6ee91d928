package chat

import (
	"fmt"
	"sync"
	"time"
)

// spinner handles the loading animation while a reply is pending.
type spinner struct {
	frames  []string
	stop    chan struct{}
	stopped chan struct{}
	mu      sync.Mutex
	running bool
}

func newSpinner() *spinner {
	return &spinner{
		frames:  []string{"◐", "◓", "◑", "◒"},
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *spinner) Start(message string) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		i := 0
		for {
			select {
			case <-s.stop:
				fmt.Print("\r\033[K")
				return
			default:
				fmt.Printf("\r%s%s%s %s", colorGray, s.frames[i%len(s.frames)], colorReset, message)
				i++
				time.Sleep(80 * time.Millisecond)
			}
		}
	}()
}

func (s *spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	<-s.stopped
}
