package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peacetifal/peacetifal-backend/api/responses"
	"github.com/peacetifal/peacetifal-backend/api/validators"
	vouchersvc "github.com/peacetifal/peacetifal-backend/internal/vouchers"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

type createVoucherRequest struct {
	Code           string          `json:"code" validate:"required"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	MaxUsage       int             `json:"max_usage" validate:"required,min=1"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
}

// AdminCreateVoucher creates a discount voucher.
func AdminCreateVoucher(svc vouchersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		var payload createVoucherRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.CreateVoucher(r.Context(), vouchersvc.CreateVoucherInput{
			Code:           payload.Code,
			DiscountAmount: payload.DiscountAmount,
			MaxUsage:       payload.MaxUsage,
			ExpiresAt:      payload.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, voucher)
	}
}

// AdminListVouchers lists every voucher.
func AdminListVouchers(svc vouchersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		vouchers, err := svc.ListVouchers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"vouchers": vouchers})
	}
}

// AdminGetVoucher fetches one voucher by id.
func AdminGetVoucher(svc vouchersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		voucherID, err := parsePathUUID(r, "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.GetVoucher(r.Context(), voucherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, voucher)
	}
}

type setVoucherActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// AdminSetVoucherActive toggles whether a voucher can be redeemed.
func AdminSetVoucherActive(svc vouchersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "voucher service unavailable"))
			return
		}

		voucherID, err := parsePathUUID(r, "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setVoucherActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetVoucherActive(r.Context(), voucherID, *payload.IsActive); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.GetVoucher(r.Context(), voucherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, voucher)
	}
}
