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

package apis

import (
	"net/http"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/hubcast/hubcast/common"
	"github.com/hubcast/hubcast/core"
	"github.com/hubcast/hubcast/hub"
	"github.com/nats-io/nats.go"
)

// APIRestHubMetricsHandler REST handler for hub metrics and health
type APIRestHubMetricsHandler struct {
	goutils.RestAPIHandler
	broadcaster hub.BroadcastHub
	natsClient  *core.NatsClient
}

// GetAPIRestHubMetricsHandler define APIRestHubMetricsHandler
func GetAPIRestHubMetricsHandler(
	broadcaster hub.BroadcastHub,
	natsClient *core.NatsClient,
	httpConfig *common.HTTPConfig,
) (APIRestHubMetricsHandler, error) {
	logTags := log.Fields{
		"module":    "rest",
		"component": "hub-metrics",
	}
	return APIRestHubMetricsHandler{
		RestAPIHandler: goutils.RestAPIHandler{
			Component: goutils.Component{
				LogTags: logTags,
				LogTagModifiers: []goutils.LogMetadataModifier{
					goutils.ModifyLogMetadataByRestRequestParam,
				},
			},
			CallRequestIDHeaderField: &httpConfig.Logging.RequestIDHeader,
			DoNotLogHeaders: func() map[string]bool {
				result := map[string]bool{}
				for _, v := range httpConfig.Logging.DoNotLogHeaders {
					result[v] = true
				}
				return result
			}(),
		},
		broadcaster: broadcaster,
		natsClient:  natsClient,
	}, nil
}

// APIRestRespMetricsSnapshot response wrapper for one metrics snapshot
type APIRestRespMetricsSnapshot struct {
	goutils.RestAPIBaseResponse
	hub.MetricsSnapshot
}

// -----------------------------------------------------------------------

// Metrics godoc
// @Summary Query the current hub metrics
// @Description Compute a fresh point-in-time snapshot of hub operational metrics
// @tags Metrics
// @Produce json
// @Param Hubcast-Request-ID header string false "User provided request ID to match against logs"
// @Success 200 {object} APIRestRespMetricsSnapshot "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 404 {string} string "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Header 200,400,500 {string} Hubcast-Request-ID "Request ID to match against logs"
// @Router /v1/metrics [get]
func (h APIRestHubMetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	localLogTags := h.GetLogTagsForContext(r.Context())
	resp := APIRestRespMetricsSnapshot{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()),
		MetricsSnapshot:     h.broadcaster.Snapshot(),
	}
	if err := h.WriteRESTResponse(w, http.StatusOK, &resp, nil); err != nil {
		log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
	}
}

// MetricsHandler Wrapper around Metrics
func (h APIRestHubMetricsHandler) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Metrics(w, r)
	}
}

// =======================================================================
// Health Checks

// -----------------------------------------------------------------------

// Alive godoc
// @Summary For hub API liveness check
// @Description Will return success to indicate the hub API module is live
// @tags Health
// @Produce json
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {string} string "error"
// @Failure 404 {string} string "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /alive [get]
func (h APIRestHubMetricsHandler) Alive(w http.ResponseWriter, r *http.Request) {
	localLogTags := h.GetLogTagsForContext(r.Context())
	if err := h.WriteRESTResponse(
		w, http.StatusOK, h.GetStdRESTSuccessMsg(r.Context()), nil,
	); err != nil {
		log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
	}
}

// AliveHandler Wrapper around Alive
func (h APIRestHubMetricsHandler) AliveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Alive(w, r)
	}
}

// -----------------------------------------------------------------------

// Ready godoc
// @Summary For hub API readiness check
// @Description Will return success if the hub API module is ready for use
// @tags Health
// @Produce json
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {string} string "error"
// @Failure 404 {string} string "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /ready [get]
func (h APIRestHubMetricsHandler) Ready(w http.ResponseWriter, r *http.Request) {
	msg := "not ready"
	localLogTags := h.GetLogTagsForContext(r.Context())
	var respCode int
	var respBody interface{}
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, respBody, nil); err != nil {
			log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
		}
	}()

	if h.natsClient.NATs().Status() == nats.CONNECTED {
		respCode = http.StatusOK
		respBody = h.GetStdRESTSuccessMsg(r.Context())
	} else {
		respCode = http.StatusInternalServerError
		respBody = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, msg)
	}
}

// ReadyHandler Wrapper around Ready
func (h APIRestHubMetricsHandler) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Ready(w, r)
	}
}

// -----------------------------------------------------------------------

// Write logging support
func (h APIRestHubMetricsHandler) Write(p []byte) (n int, err error) {
	log.WithFields(h.LogTags).Infof("%s", p)
	return len(p), nil
}
