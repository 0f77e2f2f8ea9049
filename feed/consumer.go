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
	"reflect"
	"sync"

	"github.com/apex/log"
	"github.com/hubcast/hubcast/common"
	"github.com/hubcast/hubcast/core"
	"github.com/hubcast/hubcast/hub"
	"github.com/nats-io/nats.go"
)

// CDCFeedConsumer continuously pulls change records from the upstream
// JetStream feed and broadcasts the formatted results through the hub
type CDCFeedConsumer interface {
	// Start begin reading from the feed
	Start(wg *sync.WaitGroup) error
	// Stop halt the feed read loop
	Stop() error
}

// cdcFeedConsumerImpl implements CDCFeedConsumer
type cdcFeedConsumerImpl struct {
	common.Component
	nats             *core.NatsClient
	broadcaster      hub.BroadcastHub
	sub              *nats.Subscription
	tp               common.TaskProcessor
	reading          bool
	lock             *sync.Mutex
	operationContext context.Context
	contextCancel    context.CancelFunc
}

// cdcRecordTask one raw feed message awaiting processing
type cdcRecordTask struct {
	payload []byte
}

// GetCDCFeedConsumer define a CDCFeedConsumer against a durable JetStream
// subscription
func GetCDCFeedConsumer(
	rootCtxt context.Context,
	natsClient *core.NatsClient,
	config common.FeedConfig,
	broadcaster hub.BroadcastHub,
) (CDCFeedConsumer, error) {
	logTags := log.Fields{
		"module":    "feed",
		"component": "cdc-consumer",
		"subject":   config.Subject,
		"consumer":  config.ConsumerName,
	}
	// Build the subscription based on whether a delivery group is configured
	var sub *nats.Subscription
	var err error
	if config.DeliveryGroup != "" {
		sub, err = natsClient.JetStream().QueueSubscribeSync(
			config.Subject, config.DeliveryGroup, nats.Durable(config.ConsumerName),
		)
	} else {
		sub, err = natsClient.JetStream().SubscribeSync(
			config.Subject, nats.Durable(config.ConsumerName),
		)
	}
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define feed subscription")
		return nil, err
	}
	tp, err := common.GetNewTaskProcessorInstance("cdc-consumer", 64)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define task processor")
		return nil, err
	}
	ctxt, cancel := context.WithCancel(rootCtxt)
	instance := cdcFeedConsumerImpl{
		Component:        common.Component{LogTags: logTags},
		nats:             natsClient,
		broadcaster:      broadcaster,
		sub:              sub,
		tp:               tp,
		reading:          false,
		lock:             &sync.Mutex{},
		operationContext: ctxt,
		contextCancel:    cancel,
	}
	if err := tp.AddToTaskExecutionMap(
		reflect.TypeOf(cdcRecordTask{}), instance.processRecordTask,
	); err != nil {
		cancel()
		return nil, err
	}
	return &instance, nil
}

// Start begin reading from the feed
func (c *cdcFeedConsumerImpl) Start(wg *sync.WaitGroup) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.reading {
		err := fmt.Errorf("already reading")
		log.WithError(err).WithFields(c.LogTags).Error("Unable to start reading")
		return err
	}
	c.reading = true
	if err := c.tp.StartEventLoop(wg); err != nil {
		return err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithFields(c.LogTags).Infof("Starting reading from upstream feed")
		defer log.WithFields(c.LogTags).Infof("Stopping feed read loop")
		defer func() {
			if err := c.sub.Unsubscribe(); err != nil {
				log.WithError(err).WithFields(c.LogTags).Error("Unsubscribe failed")
			}
		}()
		for {
			newMsg, err := c.sub.NextMsgWithContext(c.operationContext)
			if err != nil {
				if c.operationContext.Err() == nil {
					log.WithError(err).WithFields(c.LogTags).Errorf("Feed read failure")
				}
				return
			}
			if newMsg == nil {
				continue
			}
			if err := c.tp.Submit(
				c.operationContext, cdcRecordTask{payload: newMsg.Data},
			); err != nil {
				log.WithError(err).WithFields(c.LogTags).Errorf("Unable to queue feed record")
				return
			}
		}
	}()
	return nil
}

// processRecordTask handle one raw feed message
func (c *cdcFeedConsumerImpl) processRecordTask(param interface{}) error {
	task, ok := param.(cdcRecordTask)
	if !ok {
		return fmt.Errorf(
			"can not process unknown type %s for feed record task", reflect.TypeOf(param),
		)
	}
	// A bad record must never halt the feed; log and move on
	record, err := ParseChangeRecord(task.payload)
	if err != nil {
		log.WithError(err).WithFields(c.LogTags).Errorf("Discarding unparsable feed record")
		return nil
	}
	message, ok := record.BroadcastMessage()
	if !ok {
		log.WithFields(c.LogTags).Infof("Unknown CDC operation '%s'", record.Payload.Op)
		return nil
	}
	if err := c.broadcaster.Broadcast(c.operationContext, message); err != nil {
		log.WithError(err).WithFields(c.LogTags).Errorf("Unable to broadcast feed record")
	}
	return nil
}

// Stop halt the feed read loop
func (c *cdcFeedConsumerImpl) Stop() error {
	c.contextCancel()
	return c.tp.StopEventLoop()
}
