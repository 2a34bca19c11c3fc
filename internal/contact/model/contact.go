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

package model

import "time"

// Link precedence values. Every identity group has exactly one primary;
// secondaries point at it through LinkedID in a single hop.
const (
	LinkPrecedencePrimary   = "primary"
	LinkPrecedenceSecondary = "secondary"
)

// Contact is one customer-identifying record. Email and PhoneNumber are
// exact-match keys; at least one is always present.
type Contact struct {
	ID             int64      `json:"id" bson:"_id"`
	Email          *string    `json:"email,omitempty" bson:"email,omitempty"`
	PhoneNumber    *string    `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	LinkedID       *int64     `json:"linked_id,omitempty" bson:"linked_id,omitempty"`
	LinkPrecedence string     `json:"link_precedence" bson:"link_precedence"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// IsPrimary reports whether the contact is the canonical representative of
// its identity group.
func (c *Contact) IsPrimary() bool {
	return c.LinkPrecedence == LinkPrecedencePrimary
}

// PrimaryID resolves the id of the contact's group primary. A secondary's
// LinkedID always resolves in one hop.
func (c *Contact) PrimaryID() int64 {
	if c.LinkedID != nil && c.LinkPrecedence == LinkPrecedenceSecondary {
		return *c.LinkedID
	}
	return c.ID
}
