package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	memoryConnectionString = ":memory:"
	productColumns         = "id, name, description, image_url"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: opens its own empty database
	if connectionString == memoryConnectionString {
		db.SetMaxOpenConns(1)
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	// SQLite ignores VARCHAR lengths, the CHECK clauses enforce them
	_, err := s.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(%[1]d) NOT NULL UNIQUE CHECK (length(name) <= %[1]d),
		description VARCHAR(%[2]d) CHECK (length(description) <= %[2]d),
		image_url VARCHAR(%[3]d) CHECK (length(image_url) <= %[3]d)
	)`, MaxNameLength, MaxDescriptionLength, MaxImageURLLength))
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreateProduct(ctx context.Context, name string, description, imageURL *string) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO products (name, description, image_url) VALUES (?, ?, ?) RETURNING "+productColumns,
		name, toNullString(description), toNullString(imageURL))
	product, err := scanProduct(row)
	if err != nil {
		return nil, classifyError(err)
	}
	return product, nil
}

func (s *SQLiteDatabase) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	product, err := scanProduct(row)
	if err != nil {
		return nil, classifyError(err)
	}
	return product, nil
}

func (s *SQLiteDatabase) GetAllProducts(ctx context.Context) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	products := make([]*Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *SQLiteDatabase) UpdateProduct(ctx context.Context, id int64, name string, description *string) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE products SET name = ?, description = ? WHERE id = ? RETURNING "+productColumns,
		name, toNullString(description), id)
	product, err := scanProduct(row)
	if err != nil {
		return nil, classifyError(err)
	}
	return product, nil
}

func (s *SQLiteDatabase) DeleteProduct(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx, "DELETE FROM products WHERE id = ? RETURNING "+productColumns, id)
	product, err := scanProduct(row)
	if err != nil {
		return nil, classifyError(err)
	}
	return product, nil
}
