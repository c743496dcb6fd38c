package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// Contact is the data structure for a person that we know.
type Contact struct {
	Id            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	FavoriteColor string    `json:"favoriteColor"`
	Birthday      Date      `json:"birthday"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ContactInput carries the business fields of a contact as submitted by a client. A nil field was
// not submitted. On create all fields are required, on update any non-empty subset is accepted.
type ContactInput struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Email         *string `json:"email"`
	FavoriteColor *string `json:"favoriteColor"`
	Birthday      *Date   `json:"birthday"`
}

// Normalize trims all text fields and lowercases the email address.
func (in *ContactInput) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(in.FirstName)
	trim(in.LastName)
	trim(in.Email)
	trim(in.FavoriteColor)
	if in.Email != nil {
		*in.Email = strings.ToLower(*in.Email)
	}
}

// FieldCount returns the number of submitted fields.
func (in ContactInput) FieldCount() int {
	count := 0
	for _, present := range []bool{
		in.FirstName != nil,
		in.LastName != nil,
		in.Email != nil,
		in.FavoriteColor != nil,
		in.Birthday != nil,
	} {
		if present {
			count++
		}
	}
	return count
}

// ToContact builds a contact from a complete input. Fields that were not submitted stay empty.
func (in ContactInput) ToContact() Contact {
	var contact Contact
	if in.FirstName != nil {
		contact.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		contact.LastName = *in.LastName
	}
	if in.Email != nil {
		contact.Email = *in.Email
	}
	if in.FavoriteColor != nil {
		contact.FavoriteColor = *in.FavoriteColor
	}
	if in.Birthday != nil {
		contact.Birthday = *in.Birthday
	}
	return contact
}

// Date is a calendar date without time of day, always in UTC.
type Date struct {
	time.Time
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a point in time to its UTC calendar date.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts either a plain date or an RFC 3339 timestamp, which is truncated to its UTC
// date.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
