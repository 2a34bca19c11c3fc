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
	"sync"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
	"github.com/wso2/identity-contact-resolution-service/internal/system/config"
	"github.com/wso2/identity-contact-resolution-service/internal/system/constants"
	errors2 "github.com/wso2/identity-contact-resolution-service/internal/system/errors"
)

// ContactTx is the transaction-scoped view of the contact store. Every method
// runs inside the atomic scope opened by InTransaction; the reconciliation
// engine never touches the store outside of it.
type ContactTx interface {
	// FindByEmailOrPhone returns active contacts whose email or phone number
	// equals the given values, ascending by creation time. A nil side of the
	// OR is skipped.
	FindByEmailOrPhone(email, phone *string) ([]model.Contact, error)
	// FindGroup returns the primary with the given id plus every contact
	// linked to it, ascending by creation time.
	FindGroup(primaryID int64) ([]model.Contact, error)
	// Insert persists a new contact and assigns its id and timestamps.
	Insert(contact model.Contact) (model.Contact, error)
	// UpdateLinkage rewrites a contact's link precedence and linked id.
	UpdateLinkage(id int64, linkPrecedence string, linkedID *int64) error
	// Relink points every secondary of fromPrimaryID at toPrimaryID so the
	// one-hop resolution invariant holds after a merge.
	Relink(fromPrimaryID, toPrimaryID int64) error
}

// ContactStoreInterface opens one atomic scope per reconciliation call.
// lockKeys name the candidate identifier values being reconciled; the store
// guarantees mutual exclusion between concurrent calls whose key sets overlap
// while calls on disjoint sets proceed in parallel.
type ContactStoreInterface interface {
	InTransaction(ctx context.Context, lockKeys []string, fn func(tx ContactTx) error) error
}

var (
	contactStore ContactStoreInterface
	storeOnce    sync.Once
)

// GetContactStore returns the contact store for the configured datasource type.
func GetContactStore() (ContactStoreInterface, error) {

	var initErr error
	storeOnce.Do(func() {
		dataSource := config.GetICRRuntime().Config.DataSource
		switch dataSource.Type {
		case constants.DataSourceTypePostgres, "":
			contactStore = NewPostgresContactStore()
		case constants.DataSourceTypeMongoDB:
			contactStore, initErr = NewMongoContactStore(dataSource)
		case constants.DataSourceTypeMemory:
			contactStore = NewMemoryContactStore()
		default:
			initErr = errors2.NewServerError(errors2.ErrorMessage{
				Code:        errors2.DATASOURCE_TYPE_UNKNOWN.Code,
				Message:     errors2.DATASOURCE_TYPE_UNKNOWN.Message,
				Description: "Unsupported datasource type: " + dataSource.Type,
			}, nil)
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	if contactStore == nil {
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:    errors2.DB_CLIENT_INIT.Code,
			Message: errors2.DB_CLIENT_INIT.Message,
		}, nil)
	}
	return contactStore, nil
}

// SetContactStore installs a store instance directly. Used by tests.
func SetContactStore(s ContactStoreInterface) {
	contactStore = s
	storeOnce.Do(func() {})
}
