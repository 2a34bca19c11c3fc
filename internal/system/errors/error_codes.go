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

package errors

const errorPrefix = "ICR-"

var (
	// Client error codes

	MISSING_IDENTIFIERS = ErrorMessage{
		Code:    errorPrefix + "10001",
		Message: "At least one of email or phoneNumber must be provided.",
	}

	INVALID_EMAIL = ErrorMessage{
		Code:    errorPrefix + "10002",
		Message: "Invalid email format.",
	}

	INVALID_PHONE_NUMBER = ErrorMessage{
		Code:    errorPrefix + "10003",
		Message: "Invalid phone number format.",
	}

	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "10004",
		Message: "Invalid request payload.",
	}

	UN_AUTHORIZED = ErrorMessage{
		Code:    errorPrefix + "10005",
		Message: "Authentication failed.",
	}

	CONCURRENT_MODIFICATION = ErrorMessage{
		Code:    errorPrefix + "10006",
		Message: "A concurrent reconciliation touched the same identity group. Retry the request.",
	}

	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Unable to initialize database client.",
	}

	EXECUTE_QUERY = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while executing database query.",
	}

	TRANSACTION_FAILED = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Database transaction could not be completed.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Advisory lock acquisition failed.",
	}

	LOCK_KEY_GEN = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error generating advisory lock key.",
	}

	CONTACT_SCAN = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while reading contact rows.",
	}

	DATASOURCE_TYPE_UNKNOWN = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Unknown datasource type in configuration.",
	}
)
