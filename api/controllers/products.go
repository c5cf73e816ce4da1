package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peacetifal/peacetifal-backend/api/responses"
	"github.com/peacetifal/peacetifal-backend/api/validators"
	productsvc "github.com/peacetifal/peacetifal-backend/internal/products"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
	"github.com/peacetifal/peacetifal-backend/pkg/pagination"
)

type createProductRequest struct {
	Name               string          `json:"name" validate:"required"`
	Description        *string         `json:"description,omitempty"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discount_percentage" validate:"gte=0,lte=100"`
	Category           string          `json:"category" validate:"required"`
	Size               *string         `json:"size,omitempty"`
	StockQty           int             `json:"stock_qty" validate:"min=0"`
	Images             []string        `json:"images,omitempty"`
}

// AdminCreateProduct handles catalog product creation.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), productsvc.CreateProductInput{
			Name:               strings.TrimSpace(payload.Name),
			Description:        payload.Description,
			Price:              payload.Price,
			DiscountPercentage: payload.DiscountPercentage,
			Category:           strings.TrimSpace(payload.Category),
			Size:               payload.Size,
			StockQty:           payload.StockQty,
			Images:             payload.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name               *string          `json:"name,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	DiscountPercentage *float64         `json:"discount_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Category           *string          `json:"category,omitempty"`
	Size               *string          `json:"size,omitempty"`
	StockQty           *int             `json:"stock_qty,omitempty" validate:"omitempty,min=0"`
	Images             *[]string        `json:"images,omitempty"`
}

// AdminUpdateProduct applies a partial update to one product.
func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, productsvc.UpdateProductInput{
			Name:               payload.Name,
			Description:        payload.Description,
			Price:              payload.Price,
			DiscountPercentage: payload.DiscountPercentage,
			Category:           payload.Category,
			Size:               payload.Size,
			StockQty:           payload.StockQty,
			Images:             payload.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct soft-deletes one product.
func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type setDisplayQtyRequest struct {
	DisplayQty int `json:"display_qty" validate:"min=0"`
}

// AdminSetDisplayQty overrides the marketing display quantity for a product.
func AdminSetDisplayQty(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setDisplayQtyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.SetDisplayQty(r.Context(), productID, payload.DisplayQty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ListProducts serves the public catalog with keyset pagination.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Page: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetProduct serves one public product detail page.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func parsePathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]any{"field": key})
	}
	return parsed, nil
}
