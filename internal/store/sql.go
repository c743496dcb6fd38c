package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// mysqlDuplicateEntry is the MySQL error number for a violated unique key.
const mysqlDuplicateEntry = 1062

// ConnectMySQL opens a database connection and verifies that the database is reachable.
//
// Usage example:
// > STORE=mysql DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run ./cmd/service
func ConnectMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "could not open mysql database")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "could not reach mysql")
	}
	return sqlDB, nil
}

// contactRow is the representation of a contact in the contacts table.
type contactRow struct {
	Id            string    `db:"id"`
	FirstName     string    `db:"firstname"`
	LastName      string    `db:"lastname"`
	Email         string    `db:"email"`
	FavoriteColor string    `db:"favoritecolor"`
	Birthday      time.Time `db:"birthday"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r contactRow) toContact() model.Contact {
	return model.Contact{
		Id:            r.Id,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		FavoriteColor: r.FavoriteColor,
		Birthday:      model.DateOf(r.Birthday),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

// SQLBackend keeps contacts in a MySQL table. Identifiers are generated like document store
// identifiers so that both backends accept the same ids.
type SQLBackend struct {
	db *sqlx.DB

	// insert is a prepared statement for creating a contact.
	insert *sqlx.NamedStmt

	// selectAll is a prepared statement for selecting all contacts, newest first.
	selectAll *sqlx.Stmt

	// selectWhereId is a prepared statement for selecting the contact with a given id.
	selectWhereId *sqlx.Stmt

	// deleteWhereId is a prepared statement for deleting the contact with a given id.
	deleteWhereId *sqlx.Stmt
}

// NewSQLBackend wraps the specified sql database and prepares all statements. The database
// argument can be a real database for production use or a mock database within unit tests.
func NewSQLBackend(sqlDB *sql.DB) (*SQLBackend, error) {
	var err error
	b := &SQLBackend{db: sqlx.NewDb(sqlDB, "mysql")}

	// Prepared statements offer a significant speed increase if executed many times.
	b.insert, err = b.db.PrepareNamed(`
		INSERT INTO contacts (id, firstname, lastname, email, favoritecolor, birthday, created_at, updated_at)
		VALUES (:id, :firstname, :lastname, :email, :favoritecolor, :birthday, :created_at, :updated_at)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "could not prepare insert")
	}
	b.selectAll, err = b.db.Preparex(`
		SELECT * FROM contacts ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "could not prepare select all")
	}
	b.selectWhereId, err = b.db.Preparex(`
		SELECT * FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, errors.Wrap(err, "could not prepare select by id")
	}
	b.deleteWhereId, err = b.db.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, errors.Wrap(err, "could not prepare delete by id")
	}
	return b, nil
}

func (b *SQLBackend) FindAll(ctx context.Context) ([]model.Contact, error) {
	var rows []contactRow
	if err := b.selectAll.SelectContext(ctx, &rows); err != nil {
		return nil, errors.WithStack(err)
	}
	contacts := make([]model.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.toContact())
	}
	return contacts, nil
}

func (b *SQLBackend) FindByID(ctx context.Context, id bson.ObjectID) (*model.Contact, error) {
	var row contactRow
	err := b.selectWhereId.GetContext(ctx, &row, id.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	contact := row.toContact()
	return &contact, nil
}

func (b *SQLBackend) Insert(ctx context.Context, contact *model.Contact) error {
	row := contactRow{
		Id:            contact.Id,
		FirstName:     contact.FirstName,
		LastName:      contact.LastName,
		Email:         contact.Email,
		FavoriteColor: contact.FavoriteColor,
		Birthday:      contact.Birthday.Time,
		CreatedAt:     contact.CreatedAt,
		UpdatedAt:     contact.UpdatedAt,
	}
	if _, err := b.insert.ExecContext(ctx, row); err != nil {
		return sqlError(err)
	}
	return nil
}

// UpdateByID updates the submitted values (and only those) and reads the contact back.
func (b *SQLBackend) UpdateByID(ctx context.Context, id bson.ObjectID, fields model.ContactInput, updatedAt time.Time) (*model.Contact, error) {
	var args []interface{}
	query := "UPDATE contacts SET "
	if fields.FirstName != nil {
		args = append(args, *fields.FirstName)
		query += "firstname=?, "
	}
	if fields.LastName != nil {
		args = append(args, *fields.LastName)
		query += "lastname=?, "
	}
	if fields.Email != nil {
		args = append(args, *fields.Email)
		query += "email=?, "
	}
	if fields.FavoriteColor != nil {
		args = append(args, *fields.FavoriteColor)
		query += "favoritecolor=?, "
	}
	if fields.Birthday != nil {
		args = append(args, fields.Birthday.Time)
		query += "birthday=?, "
	}
	query += "updated_at=? WHERE id=?"
	args = append(args, updatedAt, id.Hex())

	result, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, sqlError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}
	return b.FindByID(ctx, id)
}

// DeleteByID reads the contact and then deletes it. A contact that vanishes in between counts as
// not found.
func (b *SQLBackend) DeleteByID(ctx context.Context, id bson.ObjectID) (*model.Contact, error) {
	contact, err := b.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := b.deleteWhereId.ExecContext(ctx, id.Hex())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}
	return contact, nil
}

// Close releases the prepared statements. The database itself is owned by the caller.
func (b *SQLBackend) Close() error {
	for _, stmt := range []interface{ Close() error }{b.insert, b.selectAll, b.selectWhereId, b.deleteWhereId} {
		if err := stmt.Close(); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// sqlError maps driver errors onto the backend error contract.
func sqlError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return errors.Wrap(ErrDuplicate, mysqlErr.Message)
	}
	return errors.WithStack(err)
}
