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

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseContextSurvivesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, ctx.Err())

	detached := releaseContext(ctx)
	assert.NoError(t, detached.Err(), "lock release must proceed after the request is canceled")

	// Timeouts derived for the release operations must start fresh rather
	// than inherit the expired deadline.
	opCtx, opCancel := context.WithTimeout(detached, mongoOpTimeout)
	defer opCancel()
	assert.NoError(t, opCtx.Err())

	deadline, ok := opCtx.Deadline()
	require.True(t, ok)
	assert.Greater(t, time.Until(deadline), time.Duration(0))
}
