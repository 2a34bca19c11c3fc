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

package lock

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLockKeyIsDeterministic(t *testing.T) {
	first, err := GenerateLockKey("email:a@x.com")
	require.NoError(t, err)

	second, err := GenerateLockKey("email:a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := GenerateLockKey("phone:+14155550101")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestGenerateLockKeysSortsAscending(t *testing.T) {
	ids, err := GenerateLockKeys([]string{"phone:+14155550101", "email:a@x.com"})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.True(t, sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }))

	reversed, err := GenerateLockKeys([]string{"email:a@x.com", "phone:+14155550101"})
	require.NoError(t, err)
	assert.Equal(t, ids, reversed, "lock order must not depend on input order")
}
