package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of an input. It is returned
// before any network call is made.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the message for field, or "" when the field passed.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns e as an error, or nil when no field was rejected.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks the report input against the field bounds.
func (in ReportInput) Validate() error {
	return toValidationError(validate.Struct(in))
}

// ValidateCoordinates checks a bare coordinate pair. NaN and infinities are
// out of range.
func ValidateCoordinates(lat, lon float64) error {
	verr := &ValidationError{}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		verr.Add("latitude", fieldMessage("latitude", "min"))
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		verr.Add("longitude", fieldMessage("longitude", "min"))
	}
	return verr.Err()
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		field := fe.Field()
		if strings.HasPrefix(field, "images[") {
			field = "images"
		}
		out.Add(field, fieldMessage(field, fe.Tag()))
	}
	return out
}

func fieldMessage(field, tag string) string {
	switch field {
	case "location":
		if tag == "required" {
			return "Location is required"
		}
		return fmt.Sprintf("Location must be at least %d characters", MinLocationLen)
	case "description":
		switch tag {
		case "required":
			return "Description is required"
		case "max":
			return fmt.Sprintf("Description must be at most %d characters", MaxDescriptionLen)
		}
		return "Please provide a brief description"
	case "latitude":
		if tag == "required" {
			return "Latitude is required"
		}
		return "Latitude must be between -90 and 90"
	case "longitude":
		if tag == "required" {
			return "Longitude is required"
		}
		return "Longitude must be between -180 and 180"
	case "images":
		return "Images must be valid URLs"
	case "email":
		if tag == "email" {
			return "Please enter a valid email address"
		}
	}
	if tag == "required" {
		return strings.ToUpper(field[:1]) + field[1:] + " is required"
	}
	return "is invalid"
}
