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

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hubcast/hubcast/apis"
	"github.com/hubcast/hubcast/common"
	"github.com/hubcast/hubcast/core"
	"github.com/hubcast/hubcast/feed"
	"github.com/hubcast/hubcast/hub"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// RunHubServer run the hub server: one broadcast hub, the upstream CDC feed
// consumer, the topic discovery poller, and the HTTP API on top
func RunHubServer(
	runTimeContext context.Context,
	config *common.SystemConfig,
	instance string,
	natsClient *core.NatsClient,
	wg *sync.WaitGroup,
) error {
	logTags := log.Fields{
		"module":    "cmd",
		"component": "hub-server",
		"instance":  instance,
	}

	// The single shared hub for the lifetime of the process
	broadcaster, err := hub.GetBroadcastHub(instance)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define broadcast hub")
		return err
	}

	localCtxt, lclCancel := context.WithCancel(runTimeContext)
	defer lclCancel()

	// Start the upstream CDC feed consumer
	consumer, err := feed.GetCDCFeedConsumer(localCtxt, natsClient, config.Feed, broadcaster)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define CDC feed consumer")
		return err
	}
	if err := consumer.Start(wg); err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to start CDC feed consumer")
		return err
	}
	defer func() {
		if err := consumer.Stop(); err != nil {
			log.WithError(err).WithFields(logTags).Error("CDC feed consumer stop failed")
		}
	}()

	// Start the upstream topic discovery poller
	discovery, err := feed.GetTopicDiscovery(localCtxt, natsClient, broadcaster, wg)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define topic discovery")
		return err
	}
	pollInterval := time.Second * time.Duration(config.Feed.TopicPollInterval)
	if err := discovery.Start(pollInterval); err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to start topic discovery")
		return err
	}
	defer func() {
		if err := discovery.Stop(); err != nil {
			log.WithError(err).WithFields(logTags).Error("Topic discovery stop failed")
		}
	}()

	metricsHandler, err := apis.GetAPIRestHubMetricsHandler(
		broadcaster, natsClient, &config.Hub.HTTPSetting,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define metrics HTTP handler")
		return err
	}
	wsHandler, err := apis.GetAPIRestHubWebsocketHandler(
		localCtxt, broadcaster, &config.Hub.HTTPSetting, config.Hub.Websocket, wg,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define WebSocket handler")
		return err
	}

	// -------------------------------------------------------------------
	// Start the HTTP server

	router := mux.NewRouter()
	mainRouter := apis.RegisterPathPrefix(router, config.Hub.Endpoints.PathPrefix, nil)

	// Viewer attach
	_ = apis.RegisterPathPrefix(
		mainRouter, "/ws/{clientID}", map[string]http.HandlerFunc{
			"get": wsHandler.ServeClientHandler(),
		},
	)

	// Metrics query
	_ = apis.RegisterPathPrefix(
		mainRouter, "/v1/metrics", map[string]http.HandlerFunc{
			"get": metricsHandler.MetricsHandler(),
		},
	)

	// Health check
	_ = apis.RegisterPathPrefix(mainRouter, "/alive", map[string]http.HandlerFunc{
		"get": metricsHandler.AliveHandler(),
	})
	_ = apis.RegisterPathPrefix(mainRouter, "/ready", map[string]http.HandlerFunc{
		"get": metricsHandler.ReadyHandler(),
	})

	// Add logging
	router.Use(func(next http.Handler) http.Handler {
		return handlers.CombinedLoggingHandler(metricsHandler, next)
	})

	serverCfg := config.Hub.HTTPSetting.Server
	serverListen := fmt.Sprintf("%s:%d", serverCfg.ListenOn, serverCfg.Port)
	httpSrv := &http.Server{
		Addr:         serverListen,
		ReadTimeout:  time.Second * time.Duration(serverCfg.ReadTimeout),
		WriteTimeout: time.Second * time.Duration(serverCfg.WriteTimeout),
		IdleTimeout:  time.Second * time.Duration(serverCfg.IdleTimeout),
		Handler:      h2c.NewHandler(router, &http2.Server{}),
	}

	// Cancel runtime context on shutdown
	httpSrv.RegisterOnShutdown(lclCancel)

	// Start the server
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP Server Failure")
		}
	}()

	log.WithFields(logTags).Infof("Started HTTP server on http://%s", serverListen)

	// ============================================================================

	<-runTimeContext.Done()

	// Stop the HTTP server
	{
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Failure during HTTP shutdown")
		}
	}

	return nil
}
