package service

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-api/internal/apperr"
	"gitlab.com/dirk.krummacker/contacts-api/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
)

// Service holds what the HTTP handlers need to answer requests.
type Service struct {
	contacts *store.Contacts
	log      *logger.Logger
}

// New creates the service on top of the contacts data access object.
func New(contacts *store.Contacts, log *logger.Logger) *Service {
	return &Service{contacts: contacts, log: log}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints. Panics in a handler
// are always recovered; gin's request logging is only installed if requested.
func (s *Service) SetupHttpRouter(requestLogging bool) *gin.Engine {
	var router *gin.Engine
	if requestLogging {
		router = gin.Default()
	} else {
		s.log.Info("Turning off HTTP request logging.")
		router = gin.New()
		router.Use(gin.Recovery())
	}
	router.GET("/", s.home)
	router.GET("/contacts", s.findContacts)
	router.POST("/contacts", s.createContact)
	router.GET("/contacts/:id", s.findContactByID)
	router.PUT("/contacts/:id", s.updateContactByID)
	router.DELETE("/contacts/:id", s.deleteContactByID)
	return router
}

func (s *Service) home(c *gin.Context) {
	c.String(http.StatusOK, "Contacts API")
}

// findContacts responds with the list of all contacts as JSON, newest first.
//
// REST API call:
//
//	> curl "http://localhost:3000/contacts"
func (s *Service) findContacts(c *gin.Context) {
	contacts, err := s.contacts.ListAll(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to fetch contacts")
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// createContact inserts the contact specified in the request's JSON into the database. It responds
// with the full contact data including the newly assigned id and the timestamps. All five fields
// are required.
//
// Example REST API call:
//
//	> curl http://localhost:3000/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"firstName": "Hans", "lastName": "Wurst", "email": "hans@wurst.de", "favoriteColor": "Red", "birthday": "1969-03-02"}'
func (s *Service) createContact(c *gin.Context) {
	var submitted model.ContactInput
	if err := c.ShouldBindJSON(&submitted); err != nil {
		s.respondError(c, apperr.MalformedInput("Invalid JSON"), "Failed to create contact")
		return
	}
	contact, err := s.contacts.Create(c.Request.Context(), submitted)
	if err != nil {
		s.respondError(c, err, "Failed to create contact")
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:3000/contacts/507f1f77bcf86cd799439011
func (s *Service) findContactByID(c *gin.Context) {
	contact, err := s.contacts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "Failed to fetch contact")
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL, updates the values specified in the JSON (and only those), and finally responds with the
// new version of the contact.
//
// Example REST API calls:
//
//	> curl http://localhost:3000/contacts/507f1f77bcf86cd799439011 --request "PUT" --include --header "Content-Type: application/json" --data '{"favoriteColor": "Green"}'
//	> curl http://localhost:3000/contacts/507f1f77bcf86cd799439011 --request "PUT" --include --header "Content-Type: application/json" --data '{"birthday": "1972-06-06"}'
func (s *Service) updateContactByID(c *gin.Context) {
	id := c.Param("id")
	if _, err := store.ParseID(id); err != nil {
		s.respondError(c, err, "Failed to update contact")
		return
	}

	var submitted model.ContactInput
	if err := c.ShouldBindJSON(&submitted); err != nil {
		s.respondError(c, apperr.MalformedInput("Invalid JSON"), "Failed to update contact")
		return
	}
	contact, err := s.contacts.Update(c.Request.Context(), id, submitted)
	if err != nil {
		s.respondError(c, err, "Failed to update contact")
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request URL
// from the database and responds with the deleted contact.
//
// Example REST API call:
//
//	> curl http://localhost:3000/contacts/507f1f77bcf86cd799439011 --request "DELETE"
func (s *Service) deleteContactByID(c *gin.Context) {
	contact, err := s.contacts.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "Failed to delete contact")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"message":        "Contact deleted successfully",
		"deletedContact": contact,
	})
}

// respondError translates err into an HTTP response. Details of unexpected errors are logged but
// never sent to the client, which only sees the failure message.
func (s *Service) respondError(c *gin.Context, err error, failure string) {
	appErr := apperr.From(err)
	log := s.log.With("method", c.Request.Method, "path", c.FullPath(), "id", c.Param("id"))
	switch appErr.Kind {
	case apperr.KindMalformedInput:
		log.Debug(appErr.Message, "details", appErr.Details)
		body := gin.H{"error": appErr.Message}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case apperr.KindNotFound:
		log.Debug(appErr.Message)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": appErr.Message})
	case apperr.KindConflict:
		log.Warn(appErr.Message, "error", appErr.Err)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": appErr.Message})
	default:
		log.Error(failure, "error", fmt.Sprintf("%+v", appErr.Err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": failure})
	}
}
