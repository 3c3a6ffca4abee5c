package alarm

import (
	"context"
	"io"
	"sync"
	"time"

	"wakie/go-backend/pkg/log"
)

const DefaultBeepInterval = 700 * time.Millisecond

// Beeper writes a terminal bell to out on a fixed interval while started.
type Beeper struct {
	out      io.Writer
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewBeeper(out io.Writer, interval time.Duration) *Beeper {
	if interval <= 0 {
		interval = DefaultBeepInterval
	}
	return &Beeper{out: out, interval: interval}
}

func (b *Beeper) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.loop(ctx, b.done)

	log.Info(log.Fields{"interval": b.interval.String()}, "[alarm.Beeper] alarm started")
}

// Stop halts the beeping and waits for the writer goroutine to exit.
func (b *Beeper) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel == nil {
		return
	}

	b.cancel()
	<-b.done
	b.cancel = nil
	b.done = nil

	log.Info(nil, "[alarm.Beeper] alarm stopped")
}

func (b *Beeper) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

func (b *Beeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.beep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.beep()
		}
	}
}

func (b *Beeper) beep() {
	if _, err := b.out.Write([]byte("\a")); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[alarm.Beeper] beep failed")
	}
}
