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

package scripts

var GetContactsByEmailOrPhone = map[string]string{
	"postgres": `SELECT id, email, phone_number, linked_id, link_precedence, created_at, updated_at, deleted_at
        FROM contact
        WHERE deleted_at IS NULL
          AND ((email = $1 AND $1 <> '') OR (phone_number = $2 AND $2 <> ''))
        ORDER BY created_at, id`,
}

var GetContactGroup = map[string]string{
	"postgres": `SELECT id, email, phone_number, linked_id, link_precedence, created_at, updated_at, deleted_at
        FROM contact
        WHERE deleted_at IS NULL AND (id = $1 OR linked_id = $1)
        ORDER BY created_at, id`,
}

var InsertContact = map[string]string{
	"postgres": `INSERT INTO contact (email, phone_number, linked_id, link_precedence, created_at, updated_at)
        VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5, $6)
        RETURNING id`,
}

var UpdateContactLinkage = map[string]string{
	"postgres": `UPDATE contact SET link_precedence = $2, linked_id = $3, updated_at = $4 WHERE id = $1`,
}

var RelinkSecondaries = map[string]string{
	"postgres": `UPDATE contact SET linked_id = $2, updated_at = $3 WHERE linked_id = $1`,
}

var AcquireTransactionLock = map[string]string{
	"postgres": `SELECT pg_advisory_xact_lock($1)`,
}
