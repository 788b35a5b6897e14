package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/handlers/render"
	"github.com/looksia/looksledger/internal/handlers/userctx"
	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
)

func handleSpin(spinService spinService, l logger.Logger) http.Handler {
	type response struct {
		Prize   models.PrizeType `json:"prize"`
		Balance balanceResponse  `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		result, err := spinService.Spin(r.Context(), user.ID)

		switch {
		case err == nil:
			render.JSON(w, response{
				Prize: result.Prize,
				Balance: balanceResponse{
					BasicAnalyses: result.Balance.BasicAnalyses,
					ProAnalyses:   result.Balance.ProAnalyses,
					Spins:         result.Balance.Spins,
				},
			})
		case errors.Is(err, apperrors.ErrInsufficientCredit):
			render.ServiceError(w, "No spins left", http.StatusPaymentRequired)
		default:
			l.Error("Failed to resolve spin", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleSpinHistory(spinService spinService, l logger.Logger) http.Handler {
	type spin struct {
		PrizeType models.PrizeType `json:"prize_type"`
		CreatedAt time.Time        `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		records, err := spinService.History(r.Context(), user.ID)

		switch err {
		case nil:
			spins := make([]spin, 0, len(records))
			for _, rec := range records {
				spins = append(spins, spin{PrizeType: rec.PrizeType, CreatedAt: rec.CreatedAt})
			}
			render.JSON(w, spins)
		default:
			l.Error("Failed to list spin history", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
