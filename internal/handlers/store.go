package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/handlers/render"
	"github.com/looksia/looksledger/internal/handlers/userctx"
	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
)

type purchaseResponse struct {
	ProductType models.ProductType `json:"product_type"`
	Quantity    int32              `json:"quantity"`
	Amount      float64            `json:"amount"`
	Status      string             `json:"status"`
	Repeated    bool               `json:"repeated,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func handlePurchase(purchaseService purchaseService, l logger.Logger) http.Handler {
	type request struct {
		ProductType    models.ProductType `json:"product_type" validate:"required,oneof=spins pro_analyses"`
		Quantity       int32              `json:"quantity" validate:"required,gt=0"`
		Amount         decimal.Decimal    `json:"amount" validate:"required"`
		IdempotencyKey string             `json:"idempotency_key" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := purchaseService.Purchase(r.Context(), user.ID, data.ProductType, data.Quantity, data.Amount, data.IdempotencyKey)

		switch {
		case err == nil:
			amount, _ := result.Purchase.Amount.Float64()
			render.JSON(w, purchaseResponse{
				ProductType: result.Purchase.ProductType,
				Quantity:    result.Purchase.Quantity,
				Amount:      amount,
				Status:      result.Purchase.Status,
				Repeated:    result.Repeated,
				CreatedAt:   result.Purchase.CreatedAt,
			})
		case errors.Is(err, apperrors.ErrUnknownProductType), errors.Is(err, apperrors.ErrUnknownPriceOption):
			render.ServiceError(w, "Unknown product or price option", http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to process purchase", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handlePurchaseHistory(purchaseService purchaseService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		records, err := purchaseService.History(r.Context(), user.ID)

		switch err {
		case nil:
			purchases := make([]purchaseResponse, 0, len(records))
			for _, rec := range records {
				amount, _ := rec.Amount.Float64()
				purchases = append(purchases, purchaseResponse{
					ProductType: rec.ProductType,
					Quantity:    rec.Quantity,
					Amount:      amount,
					Status:      rec.Status,
					CreatedAt:   rec.CreatedAt,
				})
			}
			render.JSON(w, purchases)
		default:
			l.Error("Failed to list purchases", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
