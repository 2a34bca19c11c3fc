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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	value, err := normalizeEmail("  Customer@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "customer@example.com", value)

	value, err = normalizeEmail("   ")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	_, err = normalizeEmail("no-at-sign")
	assert.Error(t, err)

	_, err = normalizeEmail("a@b")
	assert.Error(t, err)

	tooLong := strings.Repeat("a", 250) + "@example.com"
	_, err = normalizeEmail(tooLong)
	assert.Error(t, err)
}

func TestNormalizePhoneNumber(t *testing.T) {
	value, err := normalizePhoneNumber("+1 (415) 555-0101")
	require.NoError(t, err)
	assert.Equal(t, "+14155550101", value)

	value, err = normalizePhoneNumber("415.555.0101")
	require.NoError(t, err)
	assert.Equal(t, "+4155550101", value)

	value, err = normalizePhoneNumber("")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	_, err = normalizePhoneNumber("12345")
	assert.Error(t, err)

	_, err = normalizePhoneNumber("1234567890123456")
	assert.Error(t, err)
}
