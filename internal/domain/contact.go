package domain

import "strings"

// ContactStatusNew is the status of a freshly received contact message.
const ContactStatusNew = "new"

// ContactMessage is a message sent through the contact page.
type ContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// Normalized trims surrounding whitespace from every field.
func (m ContactMessage) Normalized() ContactMessage {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)
	return m
}

// Validate checks that every field is present and the email is well formed.
func (m ContactMessage) Validate() error {
	return toValidationError(validate.Struct(m))
}
