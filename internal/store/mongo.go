package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// ErrNotConnected is returned when the database handle is requested before a connection was
// established or after it was closed.
var ErrNotConnected = errors.New("database not initialized, connect first")

// MongoConnection is the process-wide connection to the document store. It is created once by the
// entry point and handed to everything that needs it.
type MongoConnection struct {
	client   *mongo.Client
	database *mongo.Database
}

// ConnectMongo connects to the MongoDB deployment at uri, verifies that it is reachable, and makes
// sure that the contacts collection has its indexes.
//
// Usage example:
// > MONGODB_URI=mongodb://localhost:27017 MONGODB_DATABASE=contacts go run ./cmd/service
func ConnectMongo(ctx context.Context, uri string, database string) (*MongoConnection, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "could not create mongo client")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "could not reach mongo")
	}
	conn := &MongoConnection{client: client, database: client.Database(database)}
	if err := conn.EnsureIndexes(ctx); err != nil {
		_ = conn.Disconnect(context.Background())
		return nil, err
	}
	return conn, nil
}

// Database returns the active database handle.
func (c *MongoConnection) Database() (*mongo.Database, error) {
	if c == nil || c.database == nil {
		return nil, ErrNotConnected
	}
	return c.database, nil
}

// EnsureIndexes creates a unique index for every unique contact field and an index for sorting by
// name. Existing indexes are left alone.
func (c *MongoConnection) EnsureIndexes(ctx context.Context) error {
	db, err := c.Database()
	if err != nil {
		return err
	}
	var indexes []mongo.IndexModel
	for _, field := range model.UniqueFields() {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}
	indexes = append(indexes, mongo.IndexModel{
		Keys: bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}},
	})
	if _, err := db.Collection(CollectionName).Indexes().CreateMany(ctx, indexes); err != nil {
		return errors.Wrap(err, "could not create indexes")
	}
	return nil
}

// Disconnect closes the connection. The handle cannot be used afterwards.
func (c *MongoConnection) Disconnect(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	c.database = nil
	return errors.WithStack(err)
}

// contactDocument is the representation of a contact in the contacts collection.
type contactDocument struct {
	Id            bson.ObjectID `bson:"_id"`
	FirstName     string        `bson:"firstName"`
	LastName      string        `bson:"lastName"`
	Email         string        `bson:"email"`
	FavoriteColor string        `bson:"favoriteColor"`
	Birthday      time.Time     `bson:"birthday"`
	CreatedAt     time.Time     `bson:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt"`
}

func (d contactDocument) toContact() model.Contact {
	return model.Contact{
		Id:            d.Id.Hex(),
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		FavoriteColor: d.FavoriteColor,
		Birthday:      model.DateOf(d.Birthday),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

// MongoBackend keeps contacts as documents in a MongoDB collection.
type MongoBackend struct {
	collection *mongo.Collection
}

// NewMongoBackend creates a backend on an established connection.
func NewMongoBackend(conn *MongoConnection) (*MongoBackend, error) {
	db, err := conn.Database()
	if err != nil {
		return nil, err
	}
	return &MongoBackend{collection: db.Collection(CollectionName)}, nil
}

func (b *MongoBackend) FindAll(ctx context.Context) ([]model.Contact, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := b.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var documents []contactDocument
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, errors.WithStack(err)
	}
	contacts := make([]model.Contact, 0, len(documents))
	for _, document := range documents {
		contacts = append(contacts, document.toContact())
	}
	return contacts, nil
}

func (b *MongoBackend) FindByID(ctx context.Context, id bson.ObjectID) (*model.Contact, error) {
	var document contactDocument
	err := b.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&document)
	if err != nil {
		return nil, mongoError(err)
	}
	contact := document.toContact()
	return &contact, nil
}

func (b *MongoBackend) Insert(ctx context.Context, contact *model.Contact) error {
	id, err := bson.ObjectIDFromHex(contact.Id)
	if err != nil {
		return errors.WithStack(err)
	}
	document := contactDocument{
		Id:            id,
		FirstName:     contact.FirstName,
		LastName:      contact.LastName,
		Email:         contact.Email,
		FavoriteColor: contact.FavoriteColor,
		Birthday:      contact.Birthday.Time,
		CreatedAt:     contact.CreatedAt,
		UpdatedAt:     contact.UpdatedAt,
	}
	if _, err := b.collection.InsertOne(ctx, document); err != nil {
		return mongoError(err)
	}
	return nil
}

func (b *MongoBackend) UpdateByID(ctx context.Context, id bson.ObjectID, fields model.ContactInput, updatedAt time.Time) (*model.Contact, error) {
	set := bson.D{}
	if fields.FirstName != nil {
		set = append(set, bson.E{Key: "firstName", Value: *fields.FirstName})
	}
	if fields.LastName != nil {
		set = append(set, bson.E{Key: "lastName", Value: *fields.LastName})
	}
	if fields.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *fields.Email})
	}
	if fields.FavoriteColor != nil {
		set = append(set, bson.E{Key: "favoriteColor", Value: *fields.FavoriteColor})
	}
	if fields.Birthday != nil {
		set = append(set, bson.E{Key: "birthday", Value: fields.Birthday.Time})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: updatedAt})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var document contactDocument
	err := b.collection.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&document)
	if err != nil {
		return nil, mongoError(err)
	}
	contact := document.toContact()
	return &contact, nil
}

func (b *MongoBackend) DeleteByID(ctx context.Context, id bson.ObjectID) (*model.Contact, error) {
	var document contactDocument
	err := b.collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&document)
	if err != nil {
		return nil, mongoError(err)
	}
	contact := document.toContact()
	return &contact, nil
}

// mongoError maps driver errors onto the backend error contract.
func mongoError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(ErrDuplicate, err.Error())
	default:
		return errors.WithStack(err)
	}
}
