package backend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/catalog/internal/backend/database"
	"github.com/jo-hoe/catalog/internal/backend/images"
	"github.com/labstack/echo/v4"
)

const imageNotFoundMessage = "Image not found"

// ProductService is the catalog behaviour the HTTP layer depends on.
type ProductService interface {
	AddProduct(ctx context.Context, name string, description, imageURL *string) (*database.Product, error)
	GetProducts(ctx context.Context) ([]*database.Product, error)
	GetProductByID(ctx context.Context, id int64) (*database.Product, error)
	UpdateProduct(ctx context.Context, id int64, name string, description *string) (*database.Product, error)
	DeleteProduct(ctx context.Context, id int64) (*database.Product, error)
	GetImage(ctx context.Context, id int64) (*images.Image, error)
}

type APIService struct {
	productService ProductService
}

type productIDParam struct {
	ID int64 `param:"id" validate:"gt=0"`
}

func NewAPIService(productService ProductService) *APIService {
	return &APIService{
		productService: productService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET(probePath, func(c echo.Context) error {
		return c.String(http.StatusOK, "catalog service is running")
	})

	e.POST("/product", s.createProductHandler)
	e.GET("/product", s.listProductsHandler)
	e.GET("/product/:id", s.getProductHandler)
	e.PUT("/product/:id", s.updateProductHandler)
	e.DELETE("/product/:id", s.deleteProductHandler)
	e.GET("/product/image/:id", s.getProductImageHandler)
}

func (s *APIService) createProductHandler(ctx echo.Context) error {
	request, err := fromRequestBody(ctx.Request().Body, fieldName, fieldDescription, fieldImageURL)
	if err != nil {
		return toHTTPError("createProductHandler", err)
	}

	product, err := s.productService.AddProduct(ctx.Request().Context(), request.Name, request.Description, request.ImageURL)
	if err != nil {
		return toHTTPError("createProductHandler", err)
	}
	return ctx.JSON(http.StatusOK, toJSON(product))
}

func (s *APIService) listProductsHandler(ctx echo.Context) error {
	products, err := s.productService.GetProducts(ctx.Request().Context())
	if err != nil {
		return toHTTPError("listProductsHandler", err)
	}
	return ctx.JSON(http.StatusOK, manyToJSON(products))
}

func (s *APIService) getProductHandler(ctx echo.Context) error {
	id, err := bindProductID(ctx)
	if err != nil {
		return err
	}

	product, err := s.productService.GetProductByID(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError("getProductHandler", err)
	}
	return ctx.JSON(http.StatusOK, toJSON(product))
}

func (s *APIService) updateProductHandler(ctx echo.Context) error {
	id, err := bindProductID(ctx)
	if err != nil {
		return err
	}
	request, err := fromRequestBody(ctx.Request().Body, fieldName, fieldDescription)
	if err != nil {
		return toHTTPError("updateProductHandler", err)
	}

	product, err := s.productService.UpdateProduct(ctx.Request().Context(), id, request.Name, request.Description)
	if err != nil {
		return toHTTPError("updateProductHandler", err)
	}
	return ctx.JSON(http.StatusOK, toJSON(product))
}

func (s *APIService) deleteProductHandler(ctx echo.Context) error {
	id, err := bindProductID(ctx)
	if err != nil {
		return err
	}

	product, err := s.productService.DeleteProduct(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError("deleteProductHandler", err)
	}
	return ctx.JSON(http.StatusOK, toJSON(product))
}

// getProductImageHandler answers every not-found condition, including an unusable id, with the same 404.
func (s *APIService) getProductImageHandler(ctx echo.Context) error {
	id, err := bindProductID(ctx)
	if err != nil {
		return ctx.String(http.StatusNotFound, imageNotFoundMessage)
	}

	image, err := s.productService.GetImage(ctx.Request().Context(), id)
	if errors.Is(err, images.ErrImageNotFound) {
		return ctx.String(http.StatusNotFound, imageNotFoundMessage)
	}
	if err != nil {
		return toHTTPError("getProductImageHandler", err)
	}
	defer func() {
		if cerr := image.Close(); cerr != nil {
			slog.Error("getProductImageHandler: failed to close image", "image_id", id, "error", cerr)
		}
	}()

	return ctx.Stream(http.StatusOK, image.ContentType, image)
}

func bindProductID(ctx echo.Context) (int64, error) {
	var param productIDParam
	if err := (&echo.DefaultBinder{}).BindPathParams(ctx, &param); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := ctx.Validate(&param); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return param.ID, nil
}

func toHTTPError(handler string, err error) error {
	var missingField *MissingFieldError
	switch {
	case errors.As(err, &missingField):
		return echo.NewHTTPError(http.StatusBadRequest, missingField.Error())
	case errors.Is(err, ErrInvalidBody):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, database.ErrNotFound.Error())
	case errors.Is(err, database.ErrDuplicateName):
		return echo.NewHTTPError(http.StatusConflict, database.ErrDuplicateName.Error())
	case errors.Is(err, database.ErrConstraint):
		return echo.NewHTTPError(http.StatusBadRequest, "product field exceeds its maximum length")
	case errors.Is(err, context.Canceled):
		// client went away, nothing useful to send
		return err
	default:
		slog.Error(handler+": request failed", "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
