package core

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jo-hoe/catalog/internal/backend/database"
	"github.com/jo-hoe/catalog/internal/backend/images"
)

func newTestCoreService(t *testing.T) *CoreService {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.ConnectionString = ":memory:"
	cfg.ImagesDirectory = t.TempDir()

	svc, err := NewCoreService(cfg)
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func ptr(s string) *string {
	return &s
}

func TestCoreService_GetImage(t *testing.T) {
	svc := newTestCoreService(t)
	ctx := context.Background()

	withImage, err := svc.AddProduct(ctx, "with image", nil, ptr("1"))
	if err != nil {
		t.Fatalf("AddProduct error: %v", err)
	}
	if err := os.WriteFile(svc.imageStore.ImagePath(withImage.ID), []byte("image bytes"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	img, err := svc.GetImage(ctx, withImage.ID)
	if err != nil {
		t.Fatalf("GetImage error: %v", err)
	}
	defer func() { _ = img.Close() }()
	data, err := io.ReadAll(img)
	if err != nil {
		t.Fatalf("failed to read image: %v", err)
	}
	if string(data) != "image bytes" {
		t.Errorf("unexpected image content %q", data)
	}
	if img.ContentType != images.DefaultContentType {
		t.Errorf("expected %q for unrecognised bytes, got %q", images.DefaultContentType, img.ContentType)
	}
}

func TestCoreService_GetImage_NotFoundCases(t *testing.T) {
	svc := newTestCoreService(t)
	ctx := context.Background()

	withoutURL, err := svc.AddProduct(ctx, "no image_url", nil, nil)
	if err != nil {
		t.Fatalf("AddProduct error: %v", err)
	}
	// the file exists but the product has no image reference
	if err := os.WriteFile(svc.imageStore.ImagePath(withoutURL.ID), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	withoutFile, err := svc.AddProduct(ctx, "no file", nil, ptr("2"))
	if err != nil {
		t.Fatalf("AddProduct error: %v", err)
	}

	tests := []struct {
		name string
		id   int64
	}{
		{"unknown product", 404},
		{"null image_url", withoutURL.ID},
		{"missing file", withoutFile.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.GetImage(ctx, tt.id); !errors.Is(err, images.ErrImageNotFound) {
				t.Fatalf("expected ErrImageNotFound, got %v", err)
			}
		})
	}
}

func TestCoreService_ProductLifecycle(t *testing.T) {
	svc := newTestCoreService(t)
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, "Widget", ptr("A widget"), ptr("1"))
	if err != nil {
		t.Fatalf("AddProduct error: %v", err)
	}
	if _, err := svc.UpdateProduct(ctx, created.ID, "Widget 2", ptr("Better")); err != nil {
		t.Fatalf("UpdateProduct error: %v", err)
	}
	products, err := svc.GetProducts(ctx)
	if err != nil || len(products) != 1 {
		t.Fatalf("expected 1 product, got %d (err %v)", len(products), err)
	}
	if _, err := svc.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("DeleteProduct error: %v", err)
	}
	if _, err := svc.GetProductByID(ctx, created.ID); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCoreService_GetImage_CachedImageRemovedFromDisk(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Database.ConnectionString = ":memory:"
	cfg.ImagesDirectory = t.TempDir()
	cfg.ImageCache.Address = mr.Addr()

	svc, err := NewCoreService(cfg)
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	ctx := context.Background()

	product, err := svc.AddProduct(ctx, "cached", nil, ptr("1"))
	if err != nil {
		t.Fatalf("AddProduct error: %v", err)
	}
	path := svc.imageStore.ImagePath(product.ID)
	if err := os.WriteFile(path, []byte("image bytes"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	img, err := svc.GetImage(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetImage error: %v", err)
	}
	_ = img.Close()
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected the image to be cached, got keys %v", mr.Keys())
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove image: %v", err)
	}
	if _, err := svc.GetImage(ctx, product.ID); !errors.Is(err, images.ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound for a removed file, got %v", err)
	}
}
