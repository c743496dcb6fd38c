// Package store performs the create, read, update and delete operations on the contacts
// collection. Contacts validates and normalizes input and parses identifiers; a Backend performs
// the actual round-trip to MongoDB or MySQL.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/dirk.krummacker/contacts-api/internal/apperr"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CollectionName is the name of the collection (or table) holding the contacts.
const CollectionName = "contacts"

var (
	// ErrNotFound is returned by a backend when no contact matches the identifier.
	ErrNotFound = errors.New("no contact with this id")
	// ErrDuplicate is returned by a backend when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("duplicate key")
)

// Backend is a store holding contacts. Implementations return ErrNotFound and ErrDuplicate
// (possibly wrapped) for the respective conditions and must be safe for concurrent use.
type Backend interface {
	// FindAll returns all contacts, newest first.
	FindAll(ctx context.Context) ([]model.Contact, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*model.Contact, error)
	Insert(ctx context.Context, contact *model.Contact) error
	// UpdateByID sets the submitted fields and the update timestamp and returns the updated
	// contact.
	UpdateByID(ctx context.Context, id bson.ObjectID, fields model.ContactInput, updatedAt time.Time) (*model.Contact, error)
	// DeleteByID removes a contact and returns it as it was before the removal.
	DeleteByID(ctx context.Context, id bson.ObjectID) (*model.Contact, error)
}

// Contacts is the data access object for contacts.
type Contacts struct {
	backend   Backend
	validator *model.Validator
	now       func() time.Time
}

// Option configures Contacts.
type Option func(*Contacts)

// WithClock replaces the clock used for timestamps and for the birthday check.
func WithClock(now func() time.Time) Option {
	return func(c *Contacts) {
		c.now = now
	}
}

// NewContacts creates the data access object on top of the given backend.
func NewContacts(backend Backend, opts ...Option) *Contacts {
	c := &Contacts{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.validator = model.NewValidator(c.now)
	return c
}

// ParseID checks that s is a valid store identifier.
func ParseID(s string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.ObjectID{}, apperr.MalformedInput("Invalid contact ID format")
	}
	return id, nil
}

// ListAll returns all contacts ordered by creation time, newest first. The result is never nil.
func (c *Contacts) ListAll(ctx context.Context) ([]model.Contact, error) {
	contacts, err := c.backend.FindAll(ctx)
	if err != nil {
		return nil, translate(err)
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return contacts, nil
}

// GetByID returns the contact with the given identifier.
func (c *Contacts) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	contact, err := c.backend.FindByID(ctx, objectID)
	if err != nil {
		return nil, translate(err)
	}
	return contact, nil
}

// Create validates the input, which must contain all fields, and stores it as a new contact. The
// returned contact carries the assigned identifier and timestamps.
func (c *Contacts) Create(ctx context.Context, in model.ContactInput) (*model.Contact, error) {
	in.Normalize()
	if messages := c.validator.ValidateCreate(&in); len(messages) > 0 {
		return nil, apperr.MalformedInput("Validation failed", messages...)
	}
	contact := in.ToContact()
	contact.Id = bson.NewObjectID().Hex()
	contact.CreatedAt = c.timestamp()
	contact.UpdatedAt = contact.CreatedAt
	if err := c.backend.Insert(ctx, &contact); err != nil {
		return nil, translate(err)
	}
	return &contact, nil
}

// Update applies the submitted fields to the contact with the given identifier. At least one field
// must be submitted.
func (c *Contacts) Update(ctx context.Context, id string, in model.ContactInput) (*model.Contact, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if in.FieldCount() == 0 {
		return nil, apperr.MalformedInput("No values to be updated")
	}
	in.Normalize()
	if messages := c.validator.ValidateUpdate(&in); len(messages) > 0 {
		return nil, apperr.MalformedInput("Validation failed", messages...)
	}
	contact, err := c.backend.UpdateByID(ctx, objectID, in, c.timestamp())
	if err != nil {
		return nil, translate(err)
	}
	return contact, nil
}

// Delete removes the contact with the given identifier and returns it.
func (c *Contacts) Delete(ctx context.Context, id string) (*model.Contact, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	contact, err := c.backend.DeleteByID(ctx, objectID)
	if err != nil {
		return nil, translate(err)
	}
	return contact, nil
}

// timestamp returns the current time with the millisecond precision that both stores keep.
func (c *Contacts) timestamp() time.Time {
	return c.now().UTC().Truncate(time.Millisecond)
}

func translate(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("Contact not found")
	case errors.Is(err, ErrDuplicate):
		return apperr.Conflict("Email already exists", err)
	default:
		return apperr.Unexpected(err)
	}
}
