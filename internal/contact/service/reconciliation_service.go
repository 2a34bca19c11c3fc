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

package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
	"github.com/wso2/identity-contact-resolution-service/internal/contact/store"
	"github.com/wso2/identity-contact-resolution-service/internal/system/log"
	"github.com/wso2/identity-contact-resolution-service/internal/system/metrics"
)

type ContactServiceInterface interface {
	Identify(ctx context.Context, request model.IdentifyRequest) (*model.ConsolidatedContact, error)
}

// ContactService is the default implementation of ContactServiceInterface.
type ContactService struct{}

// GetContactService returns a concrete contact service.
func GetContactService() ContactServiceInterface {
	return &ContactService{}
}

// Identify reconciles the submitted identifiers against the contact store and
// returns the consolidated view of the resulting identity group. The whole
// read-then-write sequence runs in one atomic store scope, keyed by the
// submitted values, so concurrent calls over the same identifiers serialize
// while disjoint calls proceed in parallel.
func (s *ContactService) Identify(ctx context.Context, request model.IdentifyRequest) (
	*model.ConsolidatedContact, error) {

	metrics.Get().IdentifyRequests.Inc()

	email, phone, err := normalizeRequest(request)
	if err != nil {
		metrics.Get().IdentifyFailures.Inc()
		return nil, err
	}

	contactStore, err := store.GetContactStore()
	if err != nil {
		metrics.Get().IdentifyFailures.Inc()
		return nil, err
	}

	var consolidated model.ConsolidatedContact
	txErr := contactStore.InTransaction(ctx, lockKeys(email, phone), func(tx store.ContactTx) error {
		result, reconcileErr := reconcile(tx, email, phone)
		if reconcileErr != nil {
			return reconcileErr
		}
		consolidated = *result
		return nil
	})
	if txErr != nil {
		metrics.Get().IdentifyFailures.Inc()
		return nil, txErr
	}
	return &consolidated, nil
}

// lockKeys names the advisory locks guarding a reconciliation. Keys are
// namespaced by identifier kind so an email and a phone with the same text
// never contend.
func lockKeys(email, phone *string) []string {

	var keys []string
	if email != nil {
		keys = append(keys, "email:"+*email)
	}
	if phone != nil {
		keys = append(keys, "phone:"+*phone)
	}
	return keys
}

// reconcile runs the linking algorithm inside an open store transaction.
func reconcile(tx store.ContactTx, email, phone *string) (*model.ConsolidatedContact, error) {

	logger := log.GetLogger()

	matches, err := tx.FindByEmailOrPhone(email, phone)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		created, insertErr := tx.Insert(model.Contact{
			Email:          email,
			PhoneNumber:    phone,
			LinkPrecedence: model.LinkPrecedencePrimary,
		})
		if insertErr != nil {
			return nil, insertErr
		}
		metrics.Get().ContactsCreated.Inc()
		logger.Debug("Created new primary contact", log.Int64("contactId", created.ID))
		logger.Audit(log.AuditEvent{
			InitiatorID:   "contact-service",
			InitiatorType: log.InitiatorTypeSystem,
			TargetID:      fmt.Sprintf("%d", created.ID),
			TargetType:    log.TargetTypeContact,
			ActionID:      log.ActionCreateContact,
		})
		return consolidate(created.ID, []model.Contact{created}), nil
	}

	group, primaries, err := loadTouchedGroups(tx, matches)
	if err != nil {
		return nil, err
	}

	// The oldest touched primary keeps the group; creation-time ties break
	// toward the lowest id.
	winner := primaries[0]
	for _, candidate := range primaries[1:] {
		if candidate.CreatedAt.Before(winner.CreatedAt) ||
			(candidate.CreatedAt.Equal(winner.CreatedAt) && candidate.ID < winner.ID) {
			winner = candidate
		}
	}

	if len(primaries) > 1 {
		winnerID := winner.ID
		for _, loser := range primaries {
			if loser.ID == winnerID {
				continue
			}
			if err := tx.UpdateLinkage(loser.ID, model.LinkPrecedenceSecondary, &winnerID); err != nil {
				return nil, err
			}
			if err := tx.Relink(loser.ID, winnerID); err != nil {
				return nil, err
			}
			logger.Debug("Demoted primary contact",
				log.Int64("demotedId", loser.ID), log.Int64("primaryId", winnerID))
		}
		metrics.Get().GroupsMerged.Inc()
		logger.Audit(log.AuditEvent{
			InitiatorID:   "contact-service",
			InitiatorType: log.InitiatorTypeSystem,
			TargetID:      fmt.Sprintf("%d", winnerID),
			TargetType:    log.TargetTypeIdentityGroup,
			ActionID:      log.ActionMergeContacts,
			Data:          map[string]interface{}{"mergedPrimaries": len(primaries)},
		})

		// Re-read so linkage rewrites are visible to the novelty check below.
		group, err = tx.FindGroup(winnerID)
		if err != nil {
			return nil, err
		}
	}

	if introducesNovelValue(group, email, phone) {
		winnerID := winner.ID
		created, insertErr := tx.Insert(model.Contact{
			Email:          email,
			PhoneNumber:    phone,
			LinkedID:       &winnerID,
			LinkPrecedence: model.LinkPrecedenceSecondary,
		})
		if insertErr != nil {
			return nil, insertErr
		}
		metrics.Get().ContactsCreated.Inc()
		logger.Debug("Created secondary contact",
			log.Int64("contactId", created.ID), log.Int64("primaryId", winnerID))
		logger.Audit(log.AuditEvent{
			InitiatorID:   "contact-service",
			InitiatorType: log.InitiatorTypeSystem,
			TargetID:      fmt.Sprintf("%d", created.ID),
			TargetType:    log.TargetTypeContact,
			ActionID:      log.ActionCreateContact,
			Data:          map[string]interface{}{"primaryId": winnerID},
		})
		group = append(group, created)
	}

	return consolidate(winner.ID, group), nil
}

// loadTouchedGroups resolves every match to its group primary and returns the
// union of all touched groups plus the distinct primary rows.
func loadTouchedGroups(tx store.ContactTx, matches []model.Contact) (
	[]model.Contact, []model.Contact, error) {

	seenPrimaryIDs := make(map[int64]bool)
	var primaryIDs []int64
	for _, match := range matches {
		primaryID := match.PrimaryID()
		if !seenPrimaryIDs[primaryID] {
			seenPrimaryIDs[primaryID] = true
			primaryIDs = append(primaryIDs, primaryID)
		}
	}

	seenContacts := make(map[int64]bool)
	var group []model.Contact
	var primaries []model.Contact
	for _, primaryID := range primaryIDs {
		members, err := tx.FindGroup(primaryID)
		if err != nil {
			return nil, nil, err
		}
		for _, member := range members {
			if seenContacts[member.ID] {
				continue
			}
			seenContacts[member.ID] = true
			group = append(group, member)
			if member.IsPrimary() {
				primaries = append(primaries, member)
			}
		}
	}
	return group, primaries, nil
}

// introducesNovelValue reports whether the request carries an email or phone
// the group has not seen. A request whose every submitted value is already
// present mutates nothing.
func introducesNovelValue(group []model.Contact, email, phone *string) bool {

	knownEmails := make(map[string]bool)
	knownPhones := make(map[string]bool)
	for _, contact := range group {
		if contact.Email != nil {
			knownEmails[*contact.Email] = true
		}
		if contact.PhoneNumber != nil {
			knownPhones[*contact.PhoneNumber] = true
		}
	}

	if email != nil && !knownEmails[*email] {
		return true
	}
	if phone != nil && !knownPhones[*phone] {
		return true
	}
	return false
}

// consolidate flattens a group into its response view: the primary's values
// first, the rest in creation order, duplicates removed.
func consolidate(primaryID int64, group []model.Contact) *model.ConsolidatedContact {

	sorted := append([]model.Contact(nil), group...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	consolidated := &model.ConsolidatedContact{
		PrimaryContactID:    primaryID,
		Emails:              []string{},
		PhoneNumbers:        []string{},
		SecondaryContactIDs: []int64{},
	}

	seenEmails := make(map[string]bool)
	seenPhones := make(map[string]bool)
	appendValues := func(contact model.Contact) {
		if contact.Email != nil && !seenEmails[*contact.Email] {
			seenEmails[*contact.Email] = true
			consolidated.Emails = append(consolidated.Emails, *contact.Email)
		}
		if contact.PhoneNumber != nil && !seenPhones[*contact.PhoneNumber] {
			seenPhones[*contact.PhoneNumber] = true
			consolidated.PhoneNumbers = append(consolidated.PhoneNumbers, *contact.PhoneNumber)
		}
	}

	for _, contact := range sorted {
		if contact.ID == primaryID {
			appendValues(contact)
			break
		}
	}
	for _, contact := range sorted {
		if contact.ID == primaryID {
			continue
		}
		appendValues(contact)
		consolidated.SecondaryContactIDs = append(consolidated.SecondaryContactIDs, contact.ID)
	}
	return consolidated
}
