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

package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init("verbose")
	require.Error(t, err, "a level slog cannot parse must fail Init")
}

func TestInitAcceptsStandardLevels(t *testing.T) {
	for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR", "info"} {
		require.NoError(t, Init(level))
		assert.NotNil(t, GetLogger())
	}
}

func TestFailedInitKeepsExistingLogger(t *testing.T) {
	require.NoError(t, Init("INFO"))
	existing := GetLogger()
	require.NotNil(t, existing)

	require.Error(t, Init("bogus"))
	assert.Same(t, existing, GetLogger(), "a failed re-init must not clobber the active logger")
}
