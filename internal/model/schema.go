package model

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// emailPattern is the accepted shape of an email address.
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// Rule is a single constraint on a field, written as a validator tag, together with the message
// reported when the constraint is violated.
type Rule struct {
	Tag     string
	Message string
}

// FieldSchema describes the constraints of one contact field. Missing is reported when the field is
// required but absent or blank. Rules are checked in order and only the first violation counts.
type FieldSchema struct {
	Field   string
	Missing string
	Rules   []Rule
	Unique  bool
	value   func(in *ContactInput) (any, bool)
}

// ContactSchema lists the constraints of all contact fields in reporting order.
var ContactSchema = []FieldSchema{
	{
		Field:   "firstName",
		Missing: "First name is required",
		Rules: []Rule{
			{Tag: "min=2", Message: "First name must be at least 2 characters"},
			{Tag: "max=50", Message: "First name cannot exceed 50 characters"},
		},
		value: func(in *ContactInput) (any, bool) { return stringValue(in.FirstName) },
	},
	{
		Field:   "lastName",
		Missing: "Last name is required",
		Rules: []Rule{
			{Tag: "min=2", Message: "Last name must be at least 2 characters"},
			{Tag: "max=50", Message: "Last name cannot exceed 50 characters"},
		},
		value: func(in *ContactInput) (any, bool) { return stringValue(in.LastName) },
	},
	{
		Field:   "email",
		Missing: "Email is required",
		Rules: []Rule{
			{Tag: "contactemail", Message: "Please enter a valid email"},
		},
		Unique: true,
		value:  func(in *ContactInput) (any, bool) { return stringValue(in.Email) },
	},
	{
		Field:   "favoriteColor",
		Missing: "Favorite color is required",
		Rules: []Rule{
			{Tag: "max=30", Message: "Favorite color cannot exceed 30 characters"},
		},
		value: func(in *ContactInput) (any, bool) { return stringValue(in.FavoriteColor) },
	},
	{
		Field:   "birthday",
		Missing: "Birthday is required",
		Rules: []Rule{
			{Tag: "notfuture", Message: "Birthday cannot be in the future"},
		},
		value: func(in *ContactInput) (any, bool) {
			if in.Birthday == nil {
				return nil, false
			}
			return in.Birthday.Time, true
		},
	},
}

// UniqueFields returns the fields whose values must not repeat across contacts.
func UniqueFields() []string {
	var fields []string
	for _, field := range ContactSchema {
		if field.Unique {
			fields = append(fields, field.Field)
		}
	}
	return fields
}

func stringValue(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return *s, true
}

// Validator checks contact input against ContactSchema.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator. The now function is consulted whenever a birthday is checked.
func NewValidator(now func() time.Time) *Validator {
	validate := validator.New()
	validate.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && !t.After(now())
	})
	return &Validator{validate: validate}
}

// ValidateCreate checks a complete contact. All fields are required.
func (v *Validator) ValidateCreate(in *ContactInput) []string {
	return v.check(in, true)
}

// ValidateUpdate checks only the submitted fields of a partial contact.
func (v *Validator) ValidateUpdate(in *ContactInput) []string {
	return v.check(in, false)
}

func (v *Validator) check(in *ContactInput, requireAll bool) []string {
	var messages []string
	for _, field := range ContactSchema {
		value, present := field.value(in)
		if !present {
			if requireAll {
				messages = append(messages, field.Missing)
			}
			continue
		}
		if isBlank(value) {
			messages = append(messages, field.Missing)
			continue
		}
		for _, rule := range field.Rules {
			if err := v.validate.Var(value, rule.Tag); err != nil {
				messages = append(messages, rule.Message)
				break
			}
		}
	}
	return messages
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case string:
		return v == ""
	case time.Time:
		return v.IsZero()
	}
	return value == nil
}
