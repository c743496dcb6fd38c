// Package model contains the JSON documents exchanged with the contacts API, for use by clients.
package model

import "time"

// Contact is a contact as returned by the API. Birthday is a date in the format YYYY-MM-DD.
type Contact struct {
	Id            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	FavoriteColor string    `json:"favoriteColor"`
	Birthday      string    `json:"birthday"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ContactRequest is the body of a create or update request. Empty fields are left out, so an
// update only touches the fields that are set.
type ContactRequest struct {
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Email         string `json:"email,omitempty"`
	FavoriteColor string `json:"favoriteColor,omitempty"`
	Birthday      string `json:"birthday,omitempty"`
}

// DeleteResponse is the body of a successful delete request.
type DeleteResponse struct {
	Message        string  `json:"message"`
	DeletedContact Contact `json:"deletedContact"`
}

// ErrorResponse is the body of every failed request. Details are only set for validation errors.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
