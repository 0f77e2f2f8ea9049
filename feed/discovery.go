// Copyright 2026 The hubcast Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/hubcast/hubcast/common"
	"github.com/hubcast/hubcast/core"
	"github.com/hubcast/hubcast/hub"
	"github.com/nats-io/nats.go"
)

// TopicDiscovery periodically counts the streams visible on the upstream
// JetStream cluster and caches the result in the hub for metrics reporting.
//
// Discovery failures keep the last known count; a metrics snapshot never
// fails because the upstream is unreachable.
type TopicDiscovery interface {
	// Start begin periodic discovery polls
	Start(interval time.Duration) error
	// Stop halt discovery polling
	Stop() error
}

// topicDiscoveryImpl implements TopicDiscovery
type topicDiscoveryImpl struct {
	common.Component
	nats             *core.NatsClient
	broadcaster      hub.BroadcastHub
	timer            common.IntervalTimer
	operationContext context.Context
	contextCancel    context.CancelFunc
}

// GetTopicDiscovery define a TopicDiscovery instance
func GetTopicDiscovery(
	rootCtxt context.Context,
	natsClient *core.NatsClient,
	broadcaster hub.BroadcastHub,
	wg *sync.WaitGroup,
) (TopicDiscovery, error) {
	logTags := log.Fields{
		"module": "feed", "component": "topic-discovery",
	}
	ctxt, cancel := context.WithCancel(rootCtxt)
	timer, err := common.GetIntervalTimerInstance("topic-discovery", ctxt, wg)
	if err != nil {
		cancel()
		return nil, err
	}
	return &topicDiscoveryImpl{
		Component:        common.Component{LogTags: logTags},
		nats:             natsClient,
		broadcaster:      broadcaster,
		timer:            timer,
		operationContext: ctxt,
		contextCancel:    cancel,
	}, nil
}

// Start begin periodic discovery polls
func (d *topicDiscoveryImpl) Start(interval time.Duration) error {
	// Prime the cache before the first timer tick
	if err := d.poll(); err != nil {
		log.WithError(err).WithFields(d.LogTags).Warn("Initial topic discovery failed")
	}
	return d.timer.Start(interval, d.poll)
}

// poll one discovery pass
func (d *topicDiscoveryImpl) poll() error {
	if d.nats.NATs().Status() != nats.CONNECTED {
		// Keep the last known count
		return fmt.Errorf("NATS client not connected")
	}
	ctxt, cancel := context.WithTimeout(d.operationContext, time.Second*5)
	defer cancel()
	count := 0
	for range d.nats.JetStream().StreamNames(nats.Context(ctxt)) {
		count++
	}
	if ctxt.Err() != nil {
		return ctxt.Err()
	}
	log.WithFields(d.LogTags).Debugf("Upstream reports %d streams", count)
	d.broadcaster.RecordTopicCount(count)
	return nil
}

// Stop halt discovery polling
func (d *topicDiscoveryImpl) Stop() error {
	d.contextCancel()
	return d.timer.Stop()
}
