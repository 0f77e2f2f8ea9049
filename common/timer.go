package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
)

// TimeoutHandler callback invoked on every timer tick
type TimeoutHandler func() error

// IntervalTimer runs a handler on a fixed cadence until stopped. Handler
// failures are logged; they do not stop the cadence.
type IntervalTimer interface {
	// Start begin ticking at the given interval
	Start(interval time.Duration, handler TimeoutHandler) error
	// Stop halt the tick loop
	Stop() error
}

// intervalTimerImpl implements IntervalTimer
type intervalTimerImpl struct {
	Component
	rootContext   context.Context
	contextCancel context.CancelFunc
	wg            *sync.WaitGroup
}

// GetIntervalTimerInstance define a new interval timer
func GetIntervalTimerInstance(
	name string, rootCtxt context.Context, wg *sync.WaitGroup,
) (IntervalTimer, error) {
	logTags := log.Fields{
		"module": "common", "component": "interval-timer", "instance": name,
	}
	return &intervalTimerImpl{
		Component:   Component{LogTags: logTags},
		rootContext: rootCtxt,
		wg:          wg,
	}, nil
}

// Start begin ticking at the given interval
func (t *intervalTimerImpl) Start(interval time.Duration, handler TimeoutHandler) error {
	if interval <= 0 {
		return fmt.Errorf("invalid tick interval %s", interval)
	}
	ctxt, cancel := context.WithCancel(t.rootContext)
	t.contextCancel = cancel
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.WithFields(t.LogTags).Infof("Ticking every %s", interval)
		defer log.WithFields(t.LogTags).Info("Tick loop exiting")
		for {
			select {
			case <-ctxt.Done():
				return
			case <-ticker.C:
				if err := handler(); err != nil {
					log.WithError(err).WithFields(t.LogTags).Error("Tick handler failed")
				}
			}
		}
	}()
	return nil
}

// Stop halt the tick loop
func (t *intervalTimerImpl) Stop() error {
	if t.contextCancel != nil {
		log.WithFields(t.LogTags).Info("Stopping tick loop")
		t.contextCancel()
	}
	return nil
}
