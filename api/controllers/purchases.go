package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/peacetifal/peacetifal-backend/api/responses"
	"github.com/peacetifal/peacetifal-backend/api/validators"
	purchasesvc "github.com/peacetifal/peacetifal-backend/internal/purchases"
	"github.com/peacetifal/peacetifal-backend/pkg/enums"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
	"github.com/peacetifal/peacetifal-backend/pkg/pagination"
)

type checkoutAddressRequest struct {
	RecipientName string `json:"recipient_name" validate:"required"`
	Street        string `json:"street" validate:"required"`
	City          string `json:"city" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
}

type checkoutRequest struct {
	ProductID     string                 `json:"product_id" validate:"required"`
	Quantity      int                    `json:"quantity" validate:"required,min=1"`
	CustomerName  string                 `json:"customer_name" validate:"required"`
	CustomerEmail string                 `json:"customer_email" validate:"required,email"`
	VoucherCode   *string                `json:"voucher_code,omitempty"`
	Address       checkoutAddressRequest `json:"address"`
}

// Checkout places a storefront order: stock reservation, voucher redemption,
// and the purchase records commit together.
func Checkout(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		purchase, err := svc.Checkout(r.Context(), purchasesvc.CheckoutInput{
			ProductID:     productID,
			Quantity:      payload.Quantity,
			CustomerName:  strings.TrimSpace(payload.CustomerName),
			CustomerEmail: strings.TrimSpace(payload.CustomerEmail),
			VoucherCode:   payload.VoucherCode,
			Address: purchasesvc.AddressInput{
				RecipientName: strings.TrimSpace(payload.Address.RecipientName),
				Street:        strings.TrimSpace(payload.Address.Street),
				City:          strings.TrimSpace(payload.Address.City),
				PostalCode:    strings.TrimSpace(payload.Address.PostalCode),
				Phone:         strings.TrimSpace(payload.Address.Phone),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}

// GetPurchase returns one purchase with its voucher link and address.
func GetPurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		purchaseID, err := parsePathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.GetPurchase(r.Context(), purchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}

// AdminListPurchases pages through purchases, newest first, optionally
// filtered by status.
func AdminListPurchases(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status enums.PurchaseStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, perr := enums.ParsePurchaseStatus(raw)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid status"))
				return
			}
			status = parsed
		}

		result, err := svc.ListPurchases(r.Context(), purchasesvc.ListPurchasesInput{
			Status: status,
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

type updatePurchaseStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminUpdatePurchaseStatus moves a purchase through its lifecycle.
func AdminUpdatePurchaseStatus(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		purchaseID, err := parsePathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePurchaseStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePurchaseStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		purchase, err := svc.UpdateStatus(r.Context(), purchaseID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}
