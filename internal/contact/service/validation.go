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

package service

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
	"github.com/wso2/identity-contact-resolution-service/internal/system/constants"
	errors2 "github.com/wso2/identity-contact-resolution-service/internal/system/errors"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigitPattern = regexp.MustCompile(`[^\d]`)
)

// normalizeRequest validates the identify request and returns the canonical
// forms of its identifiers: emails trimmed and lowercased, phone numbers
// reduced to digits with a leading '+'. A blank field counts as absent.
func normalizeRequest(request model.IdentifyRequest) (email, phone *string, err error) {

	if request.Email != nil {
		normalized, normErr := normalizeEmail(*request.Email)
		if normErr != nil {
			return nil, nil, normErr
		}
		if normalized != "" {
			email = &normalized
		}
	}
	if request.PhoneNumber != nil {
		normalized, normErr := normalizePhoneNumber(*request.PhoneNumber)
		if normErr != nil {
			return nil, nil, normErr
		}
		if normalized != "" {
			phone = &normalized
		}
	}

	if email == nil && phone == nil {
		return nil, nil, errors2.NewClientError(errors2.MISSING_IDENTIFIERS, http.StatusBadRequest)
	}
	return email, phone, nil
}

func normalizeEmail(raw string) (string, error) {

	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", nil
	}
	if len(value) > constants.MaxEmailLength {
		return "", errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.INVALID_EMAIL.Code,
			Message:     errors2.INVALID_EMAIL.Message,
			Description: fmt.Sprintf("Email address exceeds %d characters.", constants.MaxEmailLength),
		}, http.StatusBadRequest)
	}
	if !emailPattern.MatchString(value) {
		return "", errors2.NewClientError(errors2.INVALID_EMAIL, http.StatusBadRequest)
	}
	return value, nil
}

func normalizePhoneNumber(raw string) (string, error) {

	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	digits := nonDigitPattern.ReplaceAllString(raw, "")
	if len(digits) < constants.MinPhoneDigits || len(digits) > constants.MaxPhoneDigits {
		return "", errors2.NewClientError(errors2.ErrorMessage{
			Code:        errors2.INVALID_PHONE_NUMBER.Code,
			Message:     errors2.INVALID_PHONE_NUMBER.Message,
			Description: fmt.Sprintf("Phone numbers must carry %d to %d digits.", constants.MinPhoneDigits, constants.MaxPhoneDigits),
		}, http.StatusBadRequest)
	}
	return "+" + digits, nil
}
