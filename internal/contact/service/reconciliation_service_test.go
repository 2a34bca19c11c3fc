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
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
	"github.com/wso2/identity-contact-resolution-service/internal/contact/store"
	errors2 "github.com/wso2/identity-contact-resolution-service/internal/system/errors"
	"github.com/wso2/identity-contact-resolution-service/internal/system/log"
)

func TestMain(m *testing.M) {
	log.Init("DEBUG")
	os.Exit(m.Run())
}

func newMemoryService() ContactServiceInterface {
	store.SetContactStore(store.NewMemoryContactStore())
	return GetContactService()
}

func strPtr(s string) *string { return &s }

func identify(t *testing.T, svc ContactServiceInterface, email, phone *string) *model.ConsolidatedContact {
	t.Helper()
	result, err := svc.Identify(context.Background(), model.IdentifyRequest{Email: email, PhoneNumber: phone})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestIdentifyCreatesPrimaryForNewContact(t *testing.T) {
	svc := newMemoryService()

	result := identify(t, svc, strPtr("a@x.com"), nil)

	assert.Equal(t, int64(1), result.PrimaryContactID)
	assert.Equal(t, []string{"a@x.com"}, result.Emails)
	assert.Empty(t, result.PhoneNumbers)
	assert.Empty(t, result.SecondaryContactIDs)
}

func TestIdentifyCreatesSecondaryForNovelPhone(t *testing.T) {
	svc := newMemoryService()

	identify(t, svc, strPtr("a@x.com"), strPtr("+14155550101"))
	result := identify(t, svc, strPtr("a@x.com"), strPtr("+14155550102"))

	assert.Equal(t, int64(1), result.PrimaryContactID)
	assert.Equal(t, []string{"a@x.com"}, result.Emails)
	assert.Equal(t, []string{"+14155550101", "+14155550102"}, result.PhoneNumbers)
	assert.Equal(t, []int64{2}, result.SecondaryContactIDs)
}

func TestIdentifyMakesNoRowWhenNothingNovel(t *testing.T) {
	svc := newMemoryService()

	identify(t, svc, strPtr("a@x.com"), strPtr("+14155550101"))

	// Every submitted value is already known, in any combination.
	for _, request := range []model.IdentifyRequest{
		{Email: strPtr("a@x.com")},
		{PhoneNumber: strPtr("+14155550101")},
		{Email: strPtr("a@x.com"), PhoneNumber: strPtr("+14155550101")},
	} {
		result, err := svc.Identify(context.Background(), request)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.PrimaryContactID)
		assert.Empty(t, result.SecondaryContactIDs)
	}
}

func TestIdentifyMergesTwoPrimaries(t *testing.T) {
	svc := newMemoryService()

	identify(t, svc, strPtr("a@x.com"), nil)
	identify(t, svc, nil, strPtr("+14155550101"))

	result := identify(t, svc, strPtr("a@x.com"), strPtr("+14155550101"))

	assert.Equal(t, int64(1), result.PrimaryContactID)
	assert.Equal(t, []string{"a@x.com"}, result.Emails)
	assert.Equal(t, []string{"+14155550101"}, result.PhoneNumbers)
	assert.Equal(t, []int64{2}, result.SecondaryContactIDs)

	// The demotion sticks: the phone alone now resolves to the merged group.
	followUp := identify(t, svc, nil, strPtr("+14155550101"))
	assert.Equal(t, int64(1), followUp.PrimaryContactID)
	assert.Equal(t, []int64{2}, followUp.SecondaryContactIDs)
}

func TestIdentifyMergeCascadesSecondaryLinkage(t *testing.T) {
	svc := newMemoryService()

	identify(t, svc, strPtr("a@x.com"), nil)                    // id 1, group A
	identify(t, svc, strPtr("b@x.com"), strPtr("+14155550201")) // id 2, group B
	identify(t, svc, strPtr("b@x.com"), strPtr("+14155550202")) // id 3, secondary of 2

	result := identify(t, svc, strPtr("a@x.com"), strPtr("+14155550201"))

	assert.Equal(t, int64(1), result.PrimaryContactID)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, result.Emails)
	assert.Equal(t, []string{"+14155550201", "+14155550202"}, result.PhoneNumbers)
	assert.Equal(t, []int64{2, 3}, result.SecondaryContactIDs)

	// Cascaded relink: the old secondary of the demoted primary resolves to
	// the surviving primary in one hop.
	followUp := identify(t, svc, nil, strPtr("+14155550202"))
	assert.Equal(t, int64(1), followUp.PrimaryContactID)
	assert.Equal(t, []int64{2, 3}, followUp.SecondaryContactIDs)
}

func TestIdentifyRepeatIsIdempotent(t *testing.T) {
	svc := newMemoryService()

	first := identify(t, svc, strPtr("a@x.com"), strPtr("+14155550101"))
	second := identify(t, svc, strPtr("a@x.com"), strPtr("+14155550101"))

	assert.Equal(t, first, second)
}

func TestIdentifyNormalizesIdentifiers(t *testing.T) {
	svc := newMemoryService()

	identify(t, svc, strPtr("a@x.com"), strPtr("+14155550101"))

	// Mixed case, whitespace and phone punctuation resolve to the same group
	// without creating a new row.
	result := identify(t, svc, strPtr("  A@X.COM "), strPtr("+1 (415) 555-0101"))

	assert.Equal(t, int64(1), result.PrimaryContactID)
	assert.Empty(t, result.SecondaryContactIDs)
}

func TestIdentifyValidationFailures(t *testing.T) {
	svc := newMemoryService()

	testCases := []struct {
		name         string
		request      model.IdentifyRequest
		expectedCode string
	}{
		{"both absent", model.IdentifyRequest{}, errors2.MISSING_IDENTIFIERS.Code},
		{"both blank", model.IdentifyRequest{Email: strPtr("  "), PhoneNumber: strPtr("")}, errors2.MISSING_IDENTIFIERS.Code},
		{"malformed email", model.IdentifyRequest{Email: strPtr("not-an-email")}, errors2.INVALID_EMAIL.Code},
		{"phone too short", model.IdentifyRequest{PhoneNumber: strPtr("123")}, errors2.INVALID_PHONE_NUMBER.Code},
		{"phone too long", model.IdentifyRequest{PhoneNumber: strPtr("12345678901234567890")}, errors2.INVALID_PHONE_NUMBER.Code},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Identify(context.Background(), tc.request)
			require.Error(t, err)
			assert.Nil(t, result)

			var clientErr *errors2.ClientError
			require.ErrorAs(t, err, &clientErr)
			assert.Equal(t, http.StatusBadRequest, clientErr.StatusCode)
			assert.Equal(t, tc.expectedCode, clientErr.Code)
		})
	}
}

func TestIdentifyConcurrentRequestsCreateOneContact(t *testing.T) {
	svc := newMemoryService()

	const workers = 8
	var wg sync.WaitGroup
	primaryIDs := make([]int64, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			result, err := svc.Identify(context.Background(), model.IdentifyRequest{
				Email:       strPtr("a@x.com"),
				PhoneNumber: strPtr("+14155550101"),
			})
			if err != nil {
				errs[idx] = err
				return
			}
			primaryIDs[idx] = result.PrimaryContactID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(1), primaryIDs[i])
	}

	final := identify(t, svc, strPtr("a@x.com"), nil)
	assert.Empty(t, final.SecondaryContactIDs)
}

// fixedTx serves reconcile a pre-built store state and records the linkage
// mutations it performs.
type fixedTx struct {
	matches     []model.Contact
	groups      map[int64][]model.Contact
	mergedGroup []model.Contact

	linkageUpdates []int64
	relinks        [][2]int64
	inserted       []model.Contact
}

func (f *fixedTx) FindByEmailOrPhone(email, phone *string) ([]model.Contact, error) {
	return f.matches, nil
}

func (f *fixedTx) FindGroup(primaryID int64) ([]model.Contact, error) {
	if len(f.linkageUpdates) > 0 && f.mergedGroup != nil {
		return f.mergedGroup, nil
	}
	return f.groups[primaryID], nil
}

func (f *fixedTx) Insert(contact model.Contact) (model.Contact, error) {
	contact.ID = int64(100 + len(f.inserted))
	contact.CreatedAt = time.Now().UTC()
	contact.UpdatedAt = contact.CreatedAt
	f.inserted = append(f.inserted, contact)
	return contact, nil
}

func (f *fixedTx) UpdateLinkage(id int64, linkPrecedence string, linkedID *int64) error {
	f.linkageUpdates = append(f.linkageUpdates, id)
	return nil
}

func (f *fixedTx) Relink(fromPrimaryID, toPrimaryID int64) error {
	f.relinks = append(f.relinks, [2]int64{fromPrimaryID, toPrimaryID})
	return nil
}

func TestMergeTieBreaksTowardLowestID(t *testing.T) {
	createdAt := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	p1 := model.Contact{ID: 1, Email: strPtr("a@x.com"), LinkPrecedence: model.LinkPrecedencePrimary, CreatedAt: createdAt}
	p2 := model.Contact{ID: 2, PhoneNumber: strPtr("+14155550101"), LinkPrecedence: model.LinkPrecedencePrimary, CreatedAt: createdAt}

	linkedID := int64(1)
	demoted := p2
	demoted.LinkPrecedence = model.LinkPrecedenceSecondary
	demoted.LinkedID = &linkedID

	tx := &fixedTx{
		matches:     []model.Contact{p1, p2},
		groups:      map[int64][]model.Contact{1: {p1}, 2: {p2}},
		mergedGroup: []model.Contact{p1, demoted},
	}

	result, err := reconcile(tx, strPtr("a@x.com"), strPtr("+14155550101"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.PrimaryContactID)
	assert.Equal(t, []int64{2}, tx.linkageUpdates)
	assert.Equal(t, [][2]int64{{2, 1}}, tx.relinks)
	assert.Empty(t, tx.inserted, "merge with no novel values must not insert a row")
}

func TestMergeKeepsOldestPrimary(t *testing.T) {
	older := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	p1 := model.Contact{ID: 1, Email: strPtr("a@x.com"), LinkPrecedence: model.LinkPrecedencePrimary, CreatedAt: newer}
	p2 := model.Contact{ID: 2, PhoneNumber: strPtr("+14155550101"), LinkPrecedence: model.LinkPrecedencePrimary, CreatedAt: older}

	linkedID := int64(2)
	demoted := p1
	demoted.LinkPrecedence = model.LinkPrecedenceSecondary
	demoted.LinkedID = &linkedID

	tx := &fixedTx{
		matches:     []model.Contact{p1, p2},
		groups:      map[int64][]model.Contact{1: {p1}, 2: {p2}},
		mergedGroup: []model.Contact{demoted, p2},
	}

	result, err := reconcile(tx, strPtr("a@x.com"), strPtr("+14155550101"))
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.PrimaryContactID)
	assert.Equal(t, []int64{1}, tx.linkageUpdates)
	assert.Equal(t, [][2]int64{{1, 2}}, tx.relinks)
}

func TestConsolidateOrdersPrimaryValuesFirst(t *testing.T) {
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	linkedID := int64(1)
	group := []model.Contact{
		{ID: 1, Email: strPtr("primary@x.com"), PhoneNumber: strPtr("+14155550101"),
			LinkPrecedence: model.LinkPrecedencePrimary, CreatedAt: base},
		{ID: 2, Email: strPtr("second@x.com"), PhoneNumber: strPtr("+14155550101"),
			LinkPrecedence: model.LinkPrecedenceSecondary, LinkedID: &linkedID, CreatedAt: base.Add(time.Minute)},
		{ID: 3, Email: strPtr("primary@x.com"), PhoneNumber: strPtr("+14155550102"),
			LinkPrecedence: model.LinkPrecedenceSecondary, LinkedID: &linkedID, CreatedAt: base.Add(2 * time.Minute)},
	}

	result := consolidate(1, group)

	assert.Equal(t, int64(1), result.PrimaryContactID)
	assert.Equal(t, []string{"primary@x.com", "second@x.com"}, result.Emails)
	assert.Equal(t, []string{"+14155550101", "+14155550102"}, result.PhoneNumbers)
	assert.Equal(t, []int64{2, 3}, result.SecondaryContactIDs)
}
