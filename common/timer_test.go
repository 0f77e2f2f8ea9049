package common

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalTimer(t *testing.T) {
	assert := assert.New(t)

	ctxt, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := sync.WaitGroup{}
	defer wg.Wait()

	uut, err := GetIntervalTimerInstance("ut", ctxt, &wg)
	assert.Nil(err)

	// Case 0: non-positive intervals are rejected
	assert.NotNil(uut.Start(0, func() error { return nil }))
	assert.NotNil(uut.Start(-time.Second, func() error { return nil }))

	// Case 1: the handler fires on every tick
	fired := make(chan time.Time, 8)
	assert.Nil(uut.Start(time.Millisecond*25, func() error {
		select {
		case fired <- time.Now():
		default:
		}
		return nil
	}))
	for itr := 0; itr < 3; itr++ {
		select {
		case <-fired:
			break
		case <-time.After(time.Second):
			assert.FailNow("timer handler did not fire")
		}
	}

	// Case 2: stop halts the cadence
	assert.Nil(uut.Stop())
	time.Sleep(time.Millisecond * 100)
	for len(fired) > 0 {
		<-fired
	}
	select {
	case <-fired:
		assert.FailNow("timer fired after stop")
	case <-time.After(time.Millisecond * 100):
		break
	}
}

func TestIntervalTimerHandlerFailure(t *testing.T) {
	assert := assert.New(t)

	ctxt, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := sync.WaitGroup{}
	defer wg.Wait()

	uut, err := GetIntervalTimerInstance("ut-failing", ctxt, &wg)
	assert.Nil(err)

	// A failing handler does not stop the cadence
	fired := make(chan struct{}, 8)
	assert.Nil(uut.Start(time.Millisecond*25, func() error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return context.DeadlineExceeded
	}))
	defer func() {
		assert.Nil(uut.Stop())
	}()
	for itr := 0; itr < 3; itr++ {
		select {
		case <-fired:
			break
		case <-time.After(time.Second):
			assert.FailNow("timer handler did not keep firing")
		}
	}
}
