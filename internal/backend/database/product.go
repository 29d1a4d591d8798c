package database

import "database/sql"

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 200
	MaxImageURLLength    = 255
)

type Product struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Description *string `db:"description"` // NULL when not set
	ImageURL    *string `db:"image_url"`   // identifier of the image file, NULL when the product has none
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		product     Product
		description sql.NullString
		imageURL    sql.NullString
	)
	if err := row.Scan(&product.ID, &product.Name, &description, &imageURL); err != nil {
		return nil, err
	}
	product.Description = fromNullString(description)
	product.ImageURL = fromNullString(imageURL)
	return &product, nil
}

func fromNullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func toNullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
