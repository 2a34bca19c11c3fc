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

package constants

type contextKey string

// TraceIDContextKey is the context key under which the per-request trace id is stored.
const TraceIDContextKey contextKey = "traceId"

// ApiBasePath is the base path all versioned API endpoints are mounted under.
const ApiBasePath = "/api/v1"

// Datasource types supported by the contact store.
const (
	DataSourceTypePostgres = "postgres"
	DataSourceTypeMongoDB  = "mongodb"
	DataSourceTypeMemory   = "memory"
)

// Bounds for submitted identifiers, matching ITU-T E.164 for phone numbers.
const (
	MaxEmailLength = 255
	MinPhoneDigits = 7
	MaxPhoneDigits = 15
)
