package api

import (
	"fmt"
	"math"
	"strconv"

	"github.com/medipulse/medipulse/internal/lifesupport"
	"github.com/medipulse/medipulse/internal/models"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateCoordinate checks that c lies on the globe. A nil coordinate is
// reported against field.
func ValidateCoordinate(field string, c *models.Coordinate) error {
	if c == nil {
		return ValidationError{Field: field, Message: "location is required"}
	}
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return ValidationError{Field: field + ".latitude", Message: "must be between -90 and 90"}
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return ValidationError{Field: field + ".longitude", Message: "must be between -180 and 180"}
	}
	return nil
}

// ValidateBloodType accepts the eight ABO/Rh groups, and an empty value so
// the pipeline can report the missing requirement itself.
func ValidateBloodType(bloodType string) error {
	if bloodType == "" || lifesupport.ValidBloodType(bloodType) {
		return nil
	}
	return ValidationError{Field: "blood_type", Message: fmt.Sprintf("unknown blood type %q", bloodType)}
}

// ValidateAge rejects negative or implausible ages. Zero means unknown.
func ValidateAge(age int) error {
	if age < 0 || age > 120 {
		return ValidationError{Field: "age", Message: "must be between 0 and 120"}
	}
	return nil
}

// parseFloatParam reads a required float query parameter.
func parseFloatParam(raw, field string) (float64, error) {
	if raw == "" {
		return 0, ValidationError{Field: field, Message: "is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ValidationError{Field: field, Message: "must be a number"}
	}
	return v, nil
}

// parseHour reads an optional hour of day, defaulting to fallback.
func parseHour(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	hour, err := strconv.Atoi(raw)
	if err != nil || hour < 0 || hour > 23 {
		return 0, ValidationError{Field: "hour", Message: "must be an integer between 0 and 23"}
	}
	return hour, nil
}
