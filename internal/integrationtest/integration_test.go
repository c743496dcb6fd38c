package integrationtest

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"gitlab.com/dirk.krummacker/contacts-api/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-api/internal/service"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"gitlab.com/dirk.krummacker/contacts-api/pkg/model"
)

// mongoURI is the connection string of the MongoDB container shared by all tests.
var mongoURI string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Println("skipping integration tests in short mode")
		os.Exit(0)
	}

	ctx := context.Background()
	mongoContainer, err := testmongodb.Run(ctx, "mongo:7")
	if err != nil {
		fmt.Printf("failed to start container: %+v\n", errors.WithStack(err))
		_ = testcontainers.TerminateContainer(mongoContainer)
		os.Exit(1)
	}
	mongoURI, err = mongoContainer.ConnectionString(ctx)
	if err != nil {
		fmt.Printf("could not retrieve connection string: %+v\n", errors.WithStack(err))
		_ = testcontainers.TerminateContainer(mongoContainer)
		os.Exit(1)
	}

	code := m.Run()

	if err := testcontainers.TerminateContainer(mongoContainer); err != nil {
		fmt.Printf("failed to terminate container: %+v\n", errors.WithStack(err))
	}
	os.Exit(code)
}

// setupRouter connects to a database of its own for the calling test and returns the router of
// a contacts service on top of it.
func setupRouter(t *testing.T) *gin.Engine {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := store.ConnectMongo(ctx, mongoURI, database)
	require.NoError(t, err)
	t.Cleanup(func() {
		if db, err := conn.Database(); err == nil {
			_ = db.Drop(context.Background())
		}
		_ = conn.Disconnect(context.Background())
	})

	backend, err := store.NewMongoBackend(conn)
	require.NoError(t, err)
	gin.SetMode(gin.ReleaseMode)
	return service.New(store.NewContacts(backend), logger.Nop()).SetupHttpRouter(false)
}

// send executes a request against the router. A non-nil body is encoded as JSON.
func send(t *testing.T, router *gin.Engine, method string, url string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, reader)
	router.ServeHTTP(recorder, request)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	var value T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &value), recorder.Body.String())
	return value
}

func erika() model.ContactRequest {
	return model.ContactRequest{
		FirstName:     "Erika",
		LastName:      "Mustermann",
		Email:         "Erika.Mustermann@Example.com",
		FavoriteColor: "Blue",
		Birthday:      "1969-03-02",
	}
}

// TestContactHappyPath tests a POST, GET, PUT, and DELETE with valid data.
func TestContactHappyPath(t *testing.T) {
	router := setupRouter(t)

	// test the endpoint for creating a contact
	postRecorder := send(t, router, "POST", "/contacts", erika())
	require.Equal(t, http.StatusCreated, postRecorder.Code)
	created := decode[model.Contact](t, postRecorder)
	assert.Len(t, created.Id, 24)
	assert.Equal(t, "Erika", created.FirstName)
	assert.Equal(t, "Mustermann", created.LastName)
	assert.Equal(t, "erika.mustermann@example.com", created.Email)
	assert.Equal(t, "Blue", created.FavoriteColor)
	assert.Equal(t, "1969-03-02", created.Birthday)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// test the endpoint for finding a contact
	getRecorder := send(t, router, "GET", "/contacts/"+created.Id, nil)
	require.Equal(t, http.StatusOK, getRecorder.Code)
	assert.Equal(t, created, decode[model.Contact](t, getRecorder))

	// test the endpoint for updating a contact
	putRecorder := send(t, router, "PUT", "/contacts/"+created.Id, model.ContactRequest{
		FirstName: "Rudi",
		LastName:  "Völler",
		Birthday:  "1960-04-13",
	})
	require.Equal(t, http.StatusOK, putRecorder.Code)
	updated := decode[model.Contact](t, putRecorder)
	assert.Equal(t, created.Id, updated.Id)
	assert.Equal(t, "Rudi", updated.FirstName)
	assert.Equal(t, "Völler", updated.LastName)
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, "Blue", updated.FavoriteColor)
	assert.Equal(t, "1960-04-13", updated.Birthday)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	// test if a subsequent lookup of the contact returns the updated values
	getAgainRecorder := send(t, router, "GET", "/contacts/"+created.Id, nil)
	require.Equal(t, http.StatusOK, getAgainRecorder.Code)
	assert.Equal(t, updated, decode[model.Contact](t, getAgainRecorder))

	// test the endpoint for deleting a contact
	deleteRecorder := send(t, router, "DELETE", "/contacts/"+created.Id, nil)
	require.Equal(t, http.StatusOK, deleteRecorder.Code)
	deleted := decode[model.DeleteResponse](t, deleteRecorder)
	assert.Equal(t, "Contact deleted successfully", deleted.Message)
	assert.Equal(t, updated, deleted.DeletedContact)

	// test if a final lookup of the contact will correctly not find it
	getFinalRecorder := send(t, router, "GET", "/contacts/"+created.Id, nil)
	assert.Equal(t, http.StatusNotFound, getFinalRecorder.Code)
	assert.Equal(t, "Contact not found", decode[model.ErrorResponse](t, getFinalRecorder).Error)
}

// TestDuplicateEmail creates two contacts with the same email address in different case and
// expects the second one to be rejected, both on create and on update.
func TestDuplicateEmail(t *testing.T) {
	router := setupRouter(t)

	require.Equal(t, http.StatusCreated, send(t, router, "POST", "/contacts", erika()).Code)

	duplicate := erika()
	duplicate.Email = strings.ToUpper(duplicate.Email)
	recorder := send(t, router, "POST", "/contacts", duplicate)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "Email already exists", decode[model.ErrorResponse](t, recorder).Error)

	other := erika()
	other.Email = "max@example.com"
	otherRecorder := send(t, router, "POST", "/contacts", other)
	require.Equal(t, http.StatusCreated, otherRecorder.Code)
	otherId := decode[model.Contact](t, otherRecorder).Id

	recorder = send(t, router, "PUT", "/contacts/"+otherId, model.ContactRequest{Email: "erika.mustermann@example.com"})
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

// TestFindAllContacts creates several contacts and expects them newest first.
func TestFindAllContacts(t *testing.T) {
	router := setupRouter(t)

	recorder := send(t, router, "GET", "/contacts", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, decode[[]model.Contact](t, recorder))

	var ids []string
	for i := 0; i < 3; i++ {
		contact := erika()
		contact.Email = fmt.Sprintf("erika%d@example.com", i)
		postRecorder := send(t, router, "POST", "/contacts", contact)
		require.Equal(t, http.StatusCreated, postRecorder.Code)
		ids = append(ids, decode[model.Contact](t, postRecorder).Id)
		time.Sleep(5 * time.Millisecond)
	}

	recorder = send(t, router, "GET", "/contacts", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	contacts := decode[[]model.Contact](t, recorder)
	require.Len(t, contacts, 3)
	assert.Equal(t, ids[2], contacts[0].Id)
	assert.Equal(t, ids[1], contacts[1].Id)
	assert.Equal(t, ids[0], contacts[2].Id)
}

// TestInvalidRequests expects the BAD REQUEST and NOT FOUND status codes for requests that the
// service must reject.
func TestInvalidRequests(t *testing.T) {
	router := setupRouter(t)
	const unknownId = "507f1f77bcf86cd799439011"

	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
		status int
	}{
		{"get malformed id", "GET", "/contacts/invalid", nil, http.StatusBadRequest},
		{"get unknown id", "GET", "/contacts/" + unknownId, nil, http.StatusNotFound},
		{"create incomplete", "POST", "/contacts", model.ContactRequest{FirstName: "Erika"}, http.StatusBadRequest},
		{"create future birthday", "POST", "/contacts", model.ContactRequest{
			FirstName:     "Erika",
			LastName:      "Mustermann",
			Email:         "erika@example.com",
			FavoriteColor: "Blue",
			Birthday:      time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
		}, http.StatusBadRequest},
		{"update malformed id", "PUT", "/contacts/invalid", model.ContactRequest{FirstName: "Rudi"}, http.StatusBadRequest},
		{"update without values", "PUT", "/contacts/" + unknownId, model.ContactRequest{}, http.StatusBadRequest},
		{"update unknown id", "PUT", "/contacts/" + unknownId, model.ContactRequest{FirstName: "Rudi"}, http.StatusNotFound},
		{"delete malformed id", "DELETE", "/contacts/invalid", nil, http.StatusBadRequest},
		{"delete unknown id", "DELETE", "/contacts/" + unknownId, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := send(t, router, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			assert.NotEmpty(t, decode[model.ErrorResponse](t, recorder).Error)
		})
	}
}
