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

package authn

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wso2/identity-contact-resolution-service/internal/system/config"
	errors2 "github.com/wso2/identity-contact-resolution-service/internal/system/errors"
	"github.com/wso2/identity-contact-resolution-service/internal/system/log"
)

// ValidateRequest validates the Authorization: Bearer token on the HTTP request.
// Authentication is a deployment concern; when disabled in configuration every
// request passes.
func ValidateRequest(r *http.Request) error {

	authConfig := config.GetICRRuntime().Config.Auth
	if !authConfig.Enabled {
		return nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return unauthorizedError("Missing or invalid Authorization header")
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	claims, err := validateToken(token, authConfig.JWTSecret)
	if err != nil {
		log.GetLogger().Debug("Bearer token validation failed", log.Error(err))
		return unauthorizedError("Invalid bearer token")
	}

	if authConfig.Audience != "" && !hasAudience(claims, authConfig.Audience) {
		log.GetLogger().Debug("Token does not carry the expected audience claim")
		return unauthorizedError("Invalid bearer token")
	}

	return nil
}

// GetSubjectFromRequest parses the token subject for audit logging. Returns an
// empty string when the request carries no usable token.
func GetSubjectFromRequest(r *http.Request) string {

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}

	claims := jwt.MapClaims{}
	_, _, err := new(jwt.Parser).ParseUnverified(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), claims)
	if err != nil {
		return ""
	}
	subject, _ := claims.GetSubject()
	return subject
}

// validateToken verifies the token signature and standard claims with the
// shared HMAC secret from configuration.
func validateToken(tokenString, secret string) (jwt.MapClaims, error) {

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

func hasAudience(claims jwt.MapClaims, expected string) bool {

	audiences, err := claims.GetAudience()
	if err != nil {
		return false
	}
	for _, audience := range audiences {
		if audience == expected {
			return true
		}
	}
	return false
}

func unauthorizedError(description string) error {
	return errors2.NewClientError(errors2.ErrorMessage{
		Code:        errors2.UN_AUTHORIZED.Code,
		Message:     errors2.UN_AUTHORIZED.Message,
		Description: description,
	}, http.StatusUnauthorized)
}
