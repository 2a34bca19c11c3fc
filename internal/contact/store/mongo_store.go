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
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wso2/identity-contact-resolution-service/internal/contact/model"
	"github.com/wso2/identity-contact-resolution-service/internal/system/config"
	errors2 "github.com/wso2/identity-contact-resolution-service/internal/system/errors"
	"github.com/wso2/identity-contact-resolution-service/internal/system/log"
)

const (
	contactCollection  = "contacts"
	countersCollection = "counters"
	locksCollection    = "locks"
	contactIDSequence  = "contact_id"

	mongoOpTimeout = 5 * time.Second

	// How long an orphaned lock document may outlive its owner before the
	// server reaps it. Normal releases delete the document immediately.
	lockExpirySeconds = 300
)

// MongoContactStore persists contacts in MongoDB. Mutual exclusion between
// overlapping reconciliations comes from lock documents keyed by the candidate
// identifier values; a reconciliation that cannot take all its locks aborts
// with a conflict the caller retries. Integer contact ids are assigned from a
// counters collection.
type MongoContactStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoContactStore connects to the configured MongoDB deployment.
func NewMongoContactStore(dataSource config.DataSourceConfig) (*MongoContactStore, error) {

	uri := dataSource.URI
	if uri == "" {
		uri = fmt.Sprintf("mongodb://%s:%d", dataSource.Hostname, dataSource.Port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.DB_CLIENT_INIT.Code,
			Message:     errors2.DB_CLIENT_INIT.Message,
			Description: "Failed to connect to MongoDB.",
		}, err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.DB_CLIENT_INIT.Code,
			Message:     errors2.DB_CLIENT_INIT.Message,
			Description: "Failed to ping MongoDB.",
		}, err)
	}

	db := mongoClient.Database(dataSource.Name)

	// TTL index on the lock collection: a process that dies holding locks
	// must not block its identifiers forever.
	_, err = db.Collection(locksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(lockExpirySeconds),
	})
	if err != nil {
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.DB_CLIENT_INIT.Code,
			Message:     errors2.DB_CLIENT_INIT.Message,
			Description: "Failed to create the lock expiry index.",
		}, err)
	}

	return &MongoContactStore{
		client: mongoClient,
		db:     db,
	}, nil
}

type mongoContactTx struct {
	ctx context.Context
	db  *mongo.Database
}

func (s *MongoContactStore) InTransaction(ctx context.Context, lockKeys []string, fn func(tx ContactTx) error) error {

	acquired, err := s.acquireLocks(ctx, lockKeys)
	if err != nil {
		s.releaseLocks(ctx, acquired)
		return err
	}
	defer s.releaseLocks(ctx, acquired)

	return fn(&mongoContactTx{ctx: ctx, db: s.db})
}

// acquireLocks inserts one lock document per key, sorted so overlapping calls
// contend in a stable order. A duplicate key means another reconciliation
// holds the lock; the whole call aborts with a retryable conflict rather than
// risking a partial merge.
func (s *MongoContactStore) acquireLocks(ctx context.Context, lockKeys []string) ([]string, error) {

	keys := append([]string(nil), lockKeys...)
	sort.Strings(keys)

	locks := s.db.Collection(locksCollection)
	var acquired []string
	for _, key := range keys {
		opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
		_, err := locks.InsertOne(opCtx, bson.M{
			"_id":        key,
			"created_at": time.Now().UTC(),
		})
		cancel()
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return acquired, errors2.NewClientError(errors2.ErrorMessage{
					Code:        errors2.CONCURRENT_MODIFICATION.Code,
					Message:     errors2.CONCURRENT_MODIFICATION.Message,
					Description: "Another reconciliation holds a lock on one of the submitted identifiers.",
				}, http.StatusConflict)
			}
			return acquired, errors2.NewServerError(errors2.ErrorMessage{
				Code:        errors2.LOCK_ACQUIRE.Code,
				Message:     errors2.LOCK_ACQUIRE.Message,
				Description: fmt.Sprintf("Failed to insert lock document for key '%s'", key),
			}, err)
		}
		acquired = append(acquired, key)
	}
	return acquired, nil
}

func (s *MongoContactStore) releaseLocks(ctx context.Context, keys []string) {

	// An aborted reconciliation still has to clean up its lock documents,
	// so release is detached from request cancellation.
	ctx = releaseContext(ctx)

	locks := s.db.Collection(locksCollection)
	for _, key := range keys {
		opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
		if _, err := locks.DeleteOne(opCtx, bson.M{"_id": key}); err != nil {
			log.GetLogger().Warn("Failed to release lock document", log.String("key", key), log.Error(err))
		}
		cancel()
	}
}

// releaseContext derives a context that keeps the request's values but
// ignores its cancellation.
func releaseContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (t *mongoContactTx) FindByEmailOrPhone(email, phone *string) ([]model.Contact, error) {

	var conditions []bson.M
	if email != nil {
		conditions = append(conditions, bson.M{"email": *email})
	}
	if phone != nil {
		conditions = append(conditions, bson.M{"phone_number": *phone})
	}

	filter := bson.M{"deleted_at": nil, "$or": conditions}
	return t.findContacts(filter)
}

func (t *mongoContactTx) FindGroup(primaryID int64) ([]model.Contact, error) {

	filter := bson.M{
		"deleted_at": nil,
		"$or":        []bson.M{{"_id": primaryID}, {"linked_id": primaryID}},
	}
	return t.findContacts(filter)
}

func (t *mongoContactTx) findContacts(filter bson.M) ([]model.Contact, error) {

	opCtx, cancel := context.WithTimeout(t.ctx, mongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := t.db.Collection(contactCollection).Find(opCtx, filter, opts)
	if err != nil {
		return nil, executeQueryError("finding contact documents", err)
	}
	defer cursor.Close(opCtx)

	var contacts []model.Contact
	if err := cursor.All(opCtx, &contacts); err != nil {
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.CONTACT_SCAN.Code,
			Message:     errors2.CONTACT_SCAN.Message,
			Description: "Error decoding contact documents.",
		}, err)
	}
	return contacts, nil
}

func (t *mongoContactTx) Insert(contact model.Contact) (model.Contact, error) {

	id, err := t.nextSequence()
	if err != nil {
		return model.Contact{}, err
	}

	now := time.Now().UTC()
	contact.ID = id
	contact.CreatedAt = now
	contact.UpdatedAt = now

	opCtx, cancel := context.WithTimeout(t.ctx, mongoOpTimeout)
	defer cancel()
	if _, err := t.db.Collection(contactCollection).InsertOne(opCtx, contact); err != nil {
		return model.Contact{}, executeQueryError("inserting contact document", err)
	}
	return contact, nil
}

func (t *mongoContactTx) UpdateLinkage(id int64, linkPrecedence string, linkedID *int64) error {

	opCtx, cancel := context.WithTimeout(t.ctx, mongoOpTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"link_precedence": linkPrecedence,
		"linked_id":       linkedID,
		"updated_at":      time.Now().UTC(),
	}}
	if _, err := t.db.Collection(contactCollection).UpdateOne(opCtx, bson.M{"_id": id}, update); err != nil {
		return executeQueryError(fmt.Sprintf("updating linkage of contact %d", id), err)
	}
	return nil
}

func (t *mongoContactTx) Relink(fromPrimaryID, toPrimaryID int64) error {

	opCtx, cancel := context.WithTimeout(t.ctx, mongoOpTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"linked_id":  toPrimaryID,
		"updated_at": time.Now().UTC(),
	}}
	if _, err := t.db.Collection(contactCollection).UpdateMany(opCtx, bson.M{"linked_id": fromPrimaryID}, update); err != nil {
		return executeQueryError(fmt.Sprintf("relinking secondaries of %d to %d", fromPrimaryID, toPrimaryID), err)
	}
	return nil
}

// nextSequence atomically increments and returns the contact id counter.
func (t *mongoContactTx) nextSequence() (int64, error) {

	opCtx, cancel := context.WithTimeout(t.ctx, mongoOpTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := t.db.Collection(countersCollection).FindOneAndUpdate(opCtx,
		bson.M{"_id": contactIDSequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, executeQueryError("incrementing contact id sequence", err)
	}
	return counter.Seq, nil
}
