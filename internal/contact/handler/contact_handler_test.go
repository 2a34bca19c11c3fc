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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
	"github.com/wso2/identity-contact-resolution-service/internal/contact/store"
	"github.com/wso2/identity-contact-resolution-service/internal/system/config"
	errors2 "github.com/wso2/identity-contact-resolution-service/internal/system/errors"
	"github.com/wso2/identity-contact-resolution-service/internal/system/log"
)

const testJWTSecret = "test-secret"

func TestMain(m *testing.M) {
	log.Init("DEBUG")
	config.OverrideICRRuntime(config.Config{
		Log: config.LogConfig{LogLevel: "DEBUG"},
		DataSource: config.DataSourceConfig{
			Type: "memory",
		},
	})
	os.Exit(m.Run())
}

func postIdentify(t *testing.T, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	store.SetContactStore(store.NewMemoryContactStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/identify", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	NewContactHandler().HandleIdentifyRequest(recorder, req)
	return recorder
}

func TestHandleIdentifyReturnsConsolidatedContact(t *testing.T) {
	recorder := postIdentify(t, `{"email":"a@x.com","phoneNumber":"+14155550101"}`, nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var response model.IdentifyResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, int64(1), response.Contact.PrimaryContactID)
	assert.Equal(t, []string{"a@x.com"}, response.Contact.Emails)
	assert.Equal(t, []string{"+14155550101"}, response.Contact.PhoneNumbers)
	assert.Empty(t, response.Contact.SecondaryContactIDs)
}

func TestHandleIdentifyRejectsUnknownFields(t *testing.T) {
	recorder := postIdentify(t, `{"email":"a@x.com","unexpected":true}`, nil)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var errorResponse errors2.ErrorMessage
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &errorResponse))
	assert.Equal(t, errors2.BAD_REQUEST.Code, errorResponse.Code)
}

func TestHandleIdentifyRejectsMalformedJSON(t *testing.T) {
	recorder := postIdentify(t, `{"email":`, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleIdentifyRejectsMissingIdentifiers(t *testing.T) {
	recorder := postIdentify(t, `{}`, nil)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var errorResponse struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &errorResponse))
	assert.Equal(t, errors2.MISSING_IDENTIFIERS.Code, errorResponse.Code)
}

func TestHandleIdentifyWithAuthentication(t *testing.T) {
	config.OverrideICRRuntime(config.Config{
		Log: config.LogConfig{LogLevel: "DEBUG"},
		Auth: config.AuthConfig{
			Enabled:   true,
			JWTSecret: testJWTSecret,
			Audience:  "contact-resolution",
		},
		DataSource: config.DataSourceConfig{Type: "memory"},
	})
	defer config.OverrideICRRuntime(config.Config{
		Log:        config.LogConfig{LogLevel: "DEBUG"},
		DataSource: config.DataSourceConfig{Type: "memory"},
	})

	t.Run("missing token", func(t *testing.T) {
		recorder := postIdentify(t, `{"email":"a@x.com"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("wrong audience", func(t *testing.T) {
		token := signTestToken(t, "agent-1", "some-other-service")
		recorder := postIdentify(t, `{"email":"a@x.com"}`, map[string]string{
			"Authorization": "Bearer " + token,
		})
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signTestToken(t, "agent-1", "contact-resolution")
		recorder := postIdentify(t, `{"email":"a@x.com"}`, map[string]string{
			"Authorization": "Bearer " + token,
		})
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func signTestToken(t *testing.T, subject, audience string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"aud": audience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}
