/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
	"github.com/wso2/identity-contact-resolution-service/internal/contact/provider"
	"github.com/wso2/identity-contact-resolution-service/internal/system/authn"
	"github.com/wso2/identity-contact-resolution-service/internal/system/config"
	syscontext "github.com/wso2/identity-contact-resolution-service/internal/system/context"
	errors2 "github.com/wso2/identity-contact-resolution-service/internal/system/errors"
	"github.com/wso2/identity-contact-resolution-service/internal/system/log"
	"github.com/wso2/identity-contact-resolution-service/internal/system/utils"
)

// ContactHandler serves the identify endpoint.
type ContactHandler struct{}

func NewContactHandler() *ContactHandler {
	return &ContactHandler{}
}

// HandleIdentifyRequest authenticates the caller, decodes the identify
// request and returns the consolidated contact for the reconciled group.
func (ch *ContactHandler) HandleIdentifyRequest(w http.ResponseWriter, r *http.Request) {

	logger := log.GetLogger()
	traceID := syscontext.GetOrGenerateTraceID(r.Context())
	ctx := syscontext.WithTraceID(r.Context(), traceID)

	if err := authn.ValidateRequest(r); err != nil {
		logger.Audit(log.AuditEvent{
			InitiatorID:   "anonymous",
			InitiatorType: log.InitiatorTypeUser,
			ActionID:      log.ActionAuthenticationFailure,
			TraceID:       traceID,
		})
		utils.HandleError(w, err)
		return
	}
	if config.GetICRRuntime().Config.Auth.Enabled {
		logger.Audit(log.AuditEvent{
			InitiatorID:   authn.GetSubjectFromRequest(r),
			InitiatorType: log.InitiatorTypeUser,
			ActionID:      log.ActionAuthenticationSuccess,
			TraceID:       traceID,
		})
	}

	var request model.IdentifyRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		description := utils.HandleDecodeError(err, "identify request")
		utils.WriteErrorResponse(w, errors2.NewClientErrorWithTraceID(errors2.ErrorMessage{
			Code:        errors2.BAD_REQUEST.Code,
			Message:     errors2.BAD_REQUEST.Message,
			Description: description,
		}, http.StatusBadRequest, traceID))
		return
	}

	contactService := provider.NewContactProvider().GetContactService()
	consolidated, err := contactService.Identify(ctx, request)
	if err != nil {
		logger.Debug("Identify request failed", log.String("traceId", traceID), log.Error(err))
		utils.HandleError(w, err)
		return
	}

	initiator := authn.GetSubjectFromRequest(r)
	if initiator == "" {
		initiator = "anonymous"
	}
	logger.Audit(log.AuditEvent{
		InitiatorID:   initiator,
		InitiatorType: log.InitiatorTypeUser,
		TargetID:      fmt.Sprintf("%d", consolidated.PrimaryContactID),
		TargetType:    log.TargetTypeContact,
		ActionID:      log.ActionIdentifyContact,
		TraceID:       traceID,
	})
	utils.WriteJSONResponse(w, http.StatusOK, model.IdentifyResponse{Contact: *consolidated})
}
