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
	"sort"
	"sync"
	"time"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
)

// MemoryContactStore keeps contacts in process memory. A single mutex covers
// the whole transaction scope, which trivially satisfies the atomicity and
// mutual-exclusion requirements of reconciliation. Used by unit tests and
// local runs with datasource type "memory".
type MemoryContactStore struct {
	mu       sync.Mutex
	nextID   int64
	contacts map[int64]model.Contact
}

// NewMemoryContactStore creates an empty in-memory contact store.
func NewMemoryContactStore() *MemoryContactStore {
	return &MemoryContactStore{
		nextID:   1,
		contacts: make(map[int64]model.Contact),
	}
}

type memoryContactTx struct {
	store *MemoryContactStore
}

func (s *MemoryContactStore) InTransaction(ctx context.Context, lockKeys []string, fn func(tx ContactTx) error) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	// Snapshot for rollback: a failed reconciliation must leave no partial state.
	snapshot := make(map[int64]model.Contact, len(s.contacts))
	for id, contact := range s.contacts {
		snapshot[id] = contact
	}
	snapshotNextID := s.nextID

	if err := fn(&memoryContactTx{store: s}); err != nil {
		s.contacts = snapshot
		s.nextID = snapshotNextID
		return err
	}
	return nil
}

func (t *memoryContactTx) FindByEmailOrPhone(email, phone *string) ([]model.Contact, error) {

	var matches []model.Contact
	for _, contact := range t.store.contacts {
		if contact.DeletedAt != nil {
			continue
		}
		if email != nil && contact.Email != nil && *contact.Email == *email {
			matches = append(matches, contact)
			continue
		}
		if phone != nil && contact.PhoneNumber != nil && *contact.PhoneNumber == *phone {
			matches = append(matches, contact)
		}
	}
	sortContacts(matches)
	return matches, nil
}

func (t *memoryContactTx) FindGroup(primaryID int64) ([]model.Contact, error) {

	var group []model.Contact
	for _, contact := range t.store.contacts {
		if contact.DeletedAt != nil {
			continue
		}
		if contact.ID == primaryID || (contact.LinkedID != nil && *contact.LinkedID == primaryID) {
			group = append(group, contact)
		}
	}
	sortContacts(group)
	return group, nil
}

func (t *memoryContactTx) Insert(contact model.Contact) (model.Contact, error) {

	now := time.Now().UTC()
	contact.ID = t.store.nextID
	contact.CreatedAt = now
	contact.UpdatedAt = now
	t.store.nextID++
	t.store.contacts[contact.ID] = contact
	return contact, nil
}

func (t *memoryContactTx) UpdateLinkage(id int64, linkPrecedence string, linkedID *int64) error {

	contact, ok := t.store.contacts[id]
	if !ok {
		return nil
	}
	contact.LinkPrecedence = linkPrecedence
	contact.LinkedID = linkedID
	contact.UpdatedAt = time.Now().UTC()
	t.store.contacts[id] = contact
	return nil
}

func (t *memoryContactTx) Relink(fromPrimaryID, toPrimaryID int64) error {

	now := time.Now().UTC()
	for id, contact := range t.store.contacts {
		if contact.LinkedID != nil && *contact.LinkedID == fromPrimaryID {
			linkedID := toPrimaryID
			contact.LinkedID = &linkedID
			contact.UpdatedAt = now
			t.store.contacts[id] = contact
		}
	}
	return nil
}

func sortContacts(contacts []model.Contact) {
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].ID < contacts[j].ID
		}
		return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
	})
}
