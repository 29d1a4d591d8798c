package database

import (
	"context"
	"database/sql"
)

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// CreateProduct inserts a new product and returns it with the id assigned by the store.
	CreateProduct(ctx context.Context, name string, description, imageURL *string) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	// GetAllProducts returns every product in insertion order.
	GetAllProducts(ctx context.Context) ([]*Product, error)
	// UpdateProduct changes name and description only; image_url is left as stored.
	UpdateProduct(ctx context.Context, id int64, name string, description *string) (*Product, error)
	// DeleteProduct removes the product and returns its values as they were before removal.
	DeleteProduct(ctx context.Context, id int64) (*Product, error)
}
