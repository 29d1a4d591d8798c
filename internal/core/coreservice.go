package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/catalog/internal/backend/database"
	"github.com/jo-hoe/catalog/internal/backend/images"
	"github.com/redis/go-redis/v9"
)

const cachePingTimeout = 2 * time.Second

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	imageStore      *images.Store
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}
	return &CoreService{
		config:          config,
		databaseService: databaseService,
		imageStore:      images.NewStore(config.ImagesDirectory, getImageCache(config)),
	}, nil
}

func (service *CoreService) AddProduct(ctx context.Context, name string, description, imageURL *string) (*database.Product, error) {
	return service.databaseService.CreateProduct(ctx, name, description, imageURL)
}

func (service *CoreService) GetProducts(ctx context.Context) ([]*database.Product, error) {
	return service.databaseService.GetAllProducts(ctx)
}

func (service *CoreService) GetProductByID(ctx context.Context, id int64) (*database.Product, error) {
	return service.databaseService.GetProductByID(ctx, id)
}

func (service *CoreService) UpdateProduct(ctx context.Context, id int64, name string, description *string) (*database.Product, error) {
	return service.databaseService.UpdateProduct(ctx, id, name, description)
}

func (service *CoreService) DeleteProduct(ctx context.Context, id int64) (*database.Product, error) {
	product, err := service.databaseService.DeleteProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	service.imageStore.Forget(ctx, id)
	return product, nil
}

// GetImage opens the image of a product. A missing product, a product without
// image_url and a missing file all yield images.ErrImageNotFound.
func (service *CoreService) GetImage(ctx context.Context, id int64) (*images.Image, error) {
	product, err := service.databaseService.GetProductByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, images.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %d: %w", id, err)
	}
	if product.ImageURL == nil {
		return nil, images.ErrImageNotFound
	}
	return service.imageStore.Open(ctx, id)
}

func (service *CoreService) Close() error {
	return errors.Join(service.imageStore.Close(), service.databaseService.Close())
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

// getImageCache returns nil when no cache is configured or redis cannot be reached.
func getImageCache(config *ServiceConfig) *images.Cache {
	if config.ImageCache.Address == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.ImageCache.Address,
		Password: config.ImageCache.Password,
		DB:       config.ImageCache.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), cachePingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("image cache unavailable, serving images from disk only",
			"address", config.ImageCache.Address, "error", err)
		_ = client.Close()
		return nil
	}

	slog.Info("image cache initialized", "address", config.ImageCache.Address, "ttl", config.ImageCache.TTL)
	return images.NewCache(client, config.ImageCache.TTL)
}
