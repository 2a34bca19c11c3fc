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
	"fmt"
	"hash/fnv" // For hashing string keys to integers
	"sort"

	"github.com/wso2/identity-contact-resolution-service/internal/system/errors"
)

// GenerateLockKey hashes a string lock key into the bigint form PostgreSQL
// advisory locks require.
func GenerateLockKey(key string) (int64, error) {

	h := fnv.New64a()
	_, err := h.Write([]byte(key))
	if err != nil {
		serverError := errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LOCK_KEY_GEN.Code,
			Message:     errors.LOCK_KEY_GEN.Message,
			Description: fmt.Sprintf("failed to hash lock key '%s'", key),
		}, err)
		return 0, serverError
	}
	return int64(h.Sum64()), nil // Cast to int64 for pg_advisory_xact_lock
}

// GenerateLockKeys hashes every key and returns the ids in ascending order.
// Locks taken in a stable order cannot deadlock against each other.
func GenerateLockKeys(keys []string) ([]int64, error) {

	ids := make([]int64, 0, len(keys))
	for _, key := range keys {
		id, err := GenerateLockKey(key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
