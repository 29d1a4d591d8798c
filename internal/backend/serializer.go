package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jo-hoe/catalog/internal/backend/database"
)

var ErrInvalidBody = errors.New("request body must be a JSON object")

// MissingFieldError reports a required request key that is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// productJSON keeps the wire key order id, name, description, image_url.
type productJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

func toJSON(product *database.Product) productJSON {
	return productJSON{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		ImageURL:    product.ImageURL,
	}
}

func manyToJSON(products []*database.Product) []productJSON {
	result := make([]productJSON, 0, len(products))
	for _, product := range products {
		result = append(result, toJSON(product))
	}
	return result
}

// productRequest holds the decoded request fields. Keys that were not required
// and not sent stay nil.
type productRequest struct {
	Name        string
	Description *string
	ImageURL    *string
}

const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldImageURL    = "image_url"
)

// fromRequestBody decodes a JSON object and checks that every required key is present.
// description and image_url accept null. name must be a string.
func fromRequestBody(body io.Reader, required ...string) (*productRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil || raw == nil {
		return nil, ErrInvalidBody
	}

	for _, field := range required {
		if _, ok := raw[field]; !ok {
			return nil, &MissingFieldError{Field: field}
		}
	}

	request := &productRequest{}
	if value, ok := raw[fieldName]; ok {
		name, err := decodeNullableString(fieldName, value)
		if err != nil {
			return nil, err
		}
		if name == nil {
			return nil, &MissingFieldError{Field: fieldName}
		}
		request.Name = *name
	}

	var err error
	if request.Description, err = decodeNullableString(fieldDescription, raw[fieldDescription]); err != nil {
		return nil, err
	}
	if request.ImageURL, err = decodeNullableString(fieldImageURL, raw[fieldImageURL]); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeNullableString(field string, value json.RawMessage) (*string, error) {
	if value == nil {
		return nil, nil
	}
	var s *string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("%w: field %s must be a string or null", ErrInvalidBody, field)
	}
	return s, nil
}
