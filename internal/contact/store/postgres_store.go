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
	"database/sql"
	"fmt"
	"time"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
	"github.com/wso2/identity-contact-resolution-service/internal/system/database/lock"
	"github.com/wso2/identity-contact-resolution-service/internal/system/database/provider"
	"github.com/wso2/identity-contact-resolution-service/internal/system/database/scripts"
	errors2 "github.com/wso2/identity-contact-resolution-service/internal/system/errors"
	"github.com/wso2/identity-contact-resolution-service/internal/system/log"
)

// PostgresContactStore runs each reconciliation inside a single database
// transaction. Mutual exclusion between overlapping calls comes from
// pg_advisory_xact_lock on the hashed identifier keys; the locks are released
// automatically at commit or rollback.
type PostgresContactStore struct{}

// NewPostgresContactStore creates a new instance of PostgresContactStore.
func NewPostgresContactStore() *PostgresContactStore {
	return &PostgresContactStore{}
}

type postgresContactTx struct {
	tx     *sql.Tx
	dbType string
}

func (s *PostgresContactStore) InTransaction(ctx context.Context, lockKeys []string, fn func(tx ContactTx) error) error {

	logger := log.GetLogger()
	dbProvider := provider.NewDBProvider()
	dbClient, err := dbProvider.GetDBClient()
	if err != nil {
		errorMsg := "Failed to get database client for contact reconciliation."
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.DB_CLIENT_INIT.Code,
			Message:     errors2.DB_CLIENT_INIT.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	tx, err := dbClient.BeginTx()
	if err != nil {
		errorMsg := "Failed to begin contact reconciliation transaction."
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.TRANSACTION_FAILED.Code,
			Message:     errors2.TRANSACTION_FAILED.Message,
			Description: errorMsg,
		}, err)
	}

	ptx := &postgresContactTx{tx: tx, dbType: dbProvider.GetDBType()}
	if err := ptx.acquireLocks(lockKeys); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := fn(ptx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		errorMsg := "Failed to commit contact reconciliation transaction."
		logger.Debug(errorMsg, log.Error(err))
		return errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.TRANSACTION_FAILED.Code,
			Message:     errors2.TRANSACTION_FAILED.Message,
			Description: errorMsg,
		}, err)
	}
	return nil
}

// acquireLocks takes transaction-scoped advisory locks on the hashed keys in
// ascending order so overlapping reconciliations serialize without deadlocks.
func (t *postgresContactTx) acquireLocks(lockKeys []string) error {

	lockIDs, err := lock.GenerateLockKeys(lockKeys)
	if err != nil {
		return err
	}

	query := scripts.AcquireTransactionLock[t.dbType]
	for _, lockID := range lockIDs {
		if _, err := t.tx.Exec(query, lockID); err != nil {
			errorMsg := fmt.Sprintf("Failed to acquire advisory lock for lock id %d", lockID)
			log.GetLogger().Debug(errorMsg, log.Error(err))
			return errors2.NewServerError(errors2.ErrorMessage{
				Code:        errors2.LOCK_ACQUIRE.Code,
				Message:     errors2.LOCK_ACQUIRE.Message,
				Description: errorMsg,
			}, err)
		}
	}
	return nil
}

func (t *postgresContactTx) FindByEmailOrPhone(email, phone *string) ([]model.Contact, error) {

	query := scripts.GetContactsByEmailOrPhone[t.dbType]
	rows, err := t.tx.Query(query, stringOrEmpty(email), stringOrEmpty(phone))
	if err != nil {
		return nil, executeQueryError("fetching contacts by email or phone", err)
	}
	return scanContacts(rows)
}

func (t *postgresContactTx) FindGroup(primaryID int64) ([]model.Contact, error) {

	query := scripts.GetContactGroup[t.dbType]
	rows, err := t.tx.Query(query, primaryID)
	if err != nil {
		return nil, executeQueryError(fmt.Sprintf("fetching identity group of primary %d", primaryID), err)
	}
	return scanContacts(rows)
}

func (t *postgresContactTx) Insert(contact model.Contact) (model.Contact, error) {

	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	query := scripts.InsertContact[t.dbType]
	err := t.tx.QueryRow(query, stringOrEmpty(contact.Email), stringOrEmpty(contact.PhoneNumber),
		contact.LinkedID, contact.LinkPrecedence, contact.CreatedAt, contact.UpdatedAt).Scan(&contact.ID)
	if err != nil {
		return model.Contact{}, executeQueryError("inserting contact", err)
	}
	return contact, nil
}

func (t *postgresContactTx) UpdateLinkage(id int64, linkPrecedence string, linkedID *int64) error {

	query := scripts.UpdateContactLinkage[t.dbType]
	if _, err := t.tx.Exec(query, id, linkPrecedence, linkedID, time.Now().UTC()); err != nil {
		return executeQueryError(fmt.Sprintf("updating linkage of contact %d", id), err)
	}
	return nil
}

func (t *postgresContactTx) Relink(fromPrimaryID, toPrimaryID int64) error {

	query := scripts.RelinkSecondaries[t.dbType]
	if _, err := t.tx.Exec(query, fromPrimaryID, toPrimaryID, time.Now().UTC()); err != nil {
		return executeQueryError(fmt.Sprintf("relinking secondaries of %d to %d", fromPrimaryID, toPrimaryID), err)
	}
	return nil
}

// scanContacts reads contact rows, mapping nullable columns onto pointers.
func scanContacts(rows *sql.Rows) ([]model.Contact, error) {

	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var contact model.Contact
		var email, phone sql.NullString
		var linkedID sql.NullInt64
		var deletedAt sql.NullTime

		err := rows.Scan(&contact.ID, &email, &phone, &linkedID, &contact.LinkPrecedence,
			&contact.CreatedAt, &contact.UpdatedAt, &deletedAt)
		if err != nil {
			return nil, errors2.NewServerError(errors2.ErrorMessage{
				Code:        errors2.CONTACT_SCAN.Code,
				Message:     errors2.CONTACT_SCAN.Message,
				Description: "Error scanning a contact row.",
			}, err)
		}

		if email.Valid {
			contact.Email = &email.String
		}
		if phone.Valid {
			contact.PhoneNumber = &phone.String
		}
		if linkedID.Valid {
			contact.LinkedID = &linkedID.Int64
		}
		if deletedAt.Valid {
			contact.DeletedAt = &deletedAt.Time
		}

		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, executeQueryError("iterating contact rows", err)
	}
	return contacts, nil
}

func executeQueryError(action string, err error) error {

	errorMsg := fmt.Sprintf("Error occurred while %s.", action)
	log.GetLogger().Debug(errorMsg, log.Error(err))
	return errors2.NewServerError(errors2.ErrorMessage{
		Code:        errors2.EXECUTE_QUERY.Code,
		Message:     errors2.EXECUTE_QUERY.Message,
		Description: errorMsg,
	}, err)
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
