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
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hubcast/hubcast/common"
	"github.com/hubcast/hubcast/hub"
)

// APIRestHubWebsocketHandler WebSocket gateway for live viewers
type APIRestHubWebsocketHandler struct {
	goutils.RestAPIHandler
	broadcaster hub.BroadcastHub
	wsConfig    common.WebsocketConfig
	baseContext context.Context
	wg          *sync.WaitGroup
}

// GetAPIRestHubWebsocketHandler define APIRestHubWebsocketHandler
func GetAPIRestHubWebsocketHandler(
	baseContext context.Context,
	broadcaster hub.BroadcastHub,
	httpConfig *common.HTTPConfig,
	wsConfig common.WebsocketConfig,
	wg *sync.WaitGroup,
) (APIRestHubWebsocketHandler, error) {
	logTags := log.Fields{
		"module":    "rest",
		"component": "hub-websocket",
	}
	return APIRestHubWebsocketHandler{
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
		wsConfig:    wsConfig,
		baseContext: baseContext,
		wg:          wg,
	}, nil
}

// ServeClient godoc
// @Summary Attach a live viewer
// @Description Upgrade to a WebSocket session. Every broadcast is delivered to the
// session; text received from the viewer is re-broadcast to all connected viewers
// prefixed with the resolved nickname. The session ends on viewer disconnect, server
// shutdown, or delivery failure.
// @tags Viewer
// @Param clientID path string true "Transport assigned client identifier"
// @Param nickname query string false "Display name; 2-20 chars, letters / digits / space / underscore / hyphen"
// @Success 101 {string} string "switching protocols"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Router /ws/{clientID} [get]
func (h APIRestHubWebsocketHandler) ServeClient(w http.ResponseWriter, r *http.Request) {
	localLogTags := h.GetLogTagsForContext(r.Context())

	clientID, ok := mux.Vars(r)["clientID"]
	if !ok || clientID == "" {
		clientID = uuid.New().String()
	}

	// Format validation happens here at the edge; the hub owns only the
	// uniqueness check
	nickname := r.URL.Query().Get("nickname")
	if nickname != "" {
		if err := common.ValidateNickname(nickname); err != nil {
			msg := "Invalid nickname"
			log.WithError(err).WithFields(localLogTags).Errorf(msg)
			resp := h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
			if err := h.WriteRESTResponse(w, http.StatusBadRequest, &resp, nil); err != nil {
				log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
			}
			return
		}
		nickname = strings.TrimSpace(nickname)
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.WithError(err).WithFields(localLogTags).Error("WebSocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	client := hub.NewClient(clientID, h.wsConfig.SendQueueLen)
	if err := h.broadcaster.Register(r.Context(), client, nickname); err != nil {
		if err == hub.ErrDuplicateNickname {
			_ = conn.Close(websocket.StatusPolicyViolation, "nickname already in use")
		} else {
			log.WithError(err).WithFields(localLogTags).Errorf(
				"Unable to register client %s", clientID,
			)
			_ = conn.Close(websocket.StatusInternalError, "registration failed")
		}
		return
	}

	sessionCtxt, sessionCancel := context.WithCancel(r.Context())
	defer sessionCancel()

	// Exactly one unregister regardless of which path detects the loss
	defer func() {
		client.Fail()
		if err := h.broadcaster.Unregister(r.Context(), client); err != nil &&
			err != hub.ErrClientNotFound {
			log.WithError(err).WithFields(localLogTags).Errorf(
				"Unable to unregister client %s", clientID,
			)
		}
	}()

	// Tie the session to hub delivery failure and server shutdown; canceling
	// the session context unblocks the read below
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		select {
		case <-client.Done():
		case <-h.baseContext.Done():
		case <-sessionCtxt.Done():
		}
		sessionCancel()
	}()

	// Write pump. Delivery to this viewer never blocks the hub; the hub only
	// fills the bounded queue drained here.
	writeTimeout := time.Second * time.Duration(h.wsConfig.WriteTimeout)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-sessionCtxt.Done():
				return
			case message := <-client.Outbound():
				writeCtxt, writeCancel := context.WithTimeout(sessionCtxt, writeTimeout)
				err := conn.Write(writeCtxt, websocket.MessageText, []byte(message))
				writeCancel()
				if err != nil {
					log.WithError(err).WithFields(localLogTags).Infof(
						"Write to client %s failed. Closing session", clientID,
					)
					client.Fail()
					return
				}
			}
		}
	}()

	// Read loop: viewer chat rides the normal broadcast path
	for {
		msgType, data, err := conn.Read(sessionCtxt)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				sessionCtxt.Err() != nil {
				log.WithFields(localLogTags).Infof("Client %s session ended", clientID)
			} else {
				log.WithError(err).WithFields(localLogTags).Infof(
					"Client %s read failed. Closing session", clientID,
				)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		formatted := fmt.Sprintf("%s: %s", h.broadcaster.ResolveNickname(client), text)
		if err := h.broadcaster.Broadcast(sessionCtxt, formatted); err != nil {
			log.WithError(err).WithFields(localLogTags).Errorf(
				"Unable to broadcast for client %s", clientID,
			)
		}
	}
}

// ServeClientHandler Wrapper around ServeClient
func (h APIRestHubWebsocketHandler) ServeClientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeClient(w, r)
	}
}
