package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/handlers/render"
	"github.com/looksia/looksledger/internal/handlers/userctx"
	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
)

func handleAnalyze(analysisService analysisService, l logger.Logger) http.Handler {
	type request struct {
		Type  models.PrizeType `json:"type" validate:"required,oneof=basic pro"`
		Image string           `json:"image" validate:"required,image"`

		// Optional: retrying with the same key never bills twice
		IdempotencyKey string `json:"idempotency_key" validate:"omitempty,max=128"`
	}
	type response struct {
		ID        uuid.UUID         `json:"id"`
		Type      models.PrizeType  `json:"type"`
		Report    models.FaceReport `json:"report"`
		CreatedAt time.Time         `json:"created_at"`
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

		record, err := analysisService.Analyze(r.Context(), user.ID, data.Type, data.Image, data.IdempotencyKey)

		switch {
		case err == nil:
			render.JSON(w, response{
				ID:        record.ID,
				Type:      record.AnalysisType,
				Report:    record.Report,
				CreatedAt: record.CreatedAt,
			})
		case errors.Is(err, apperrors.ErrInsufficientCredit):
			render.ServiceError(w, "No analysis credits left", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrScoringUnavailable):
			render.ServiceError(w, "Scoring service temporarily unavailable", http.StatusBadGateway)
		case errors.Is(err, apperrors.ErrEmptyImage), errors.Is(err, apperrors.ErrUnknownCreditKind):
			render.ServiceError(w, "Invalid analysis request", http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to run analysis", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleAnalysisHistory(analysisService analysisService, l logger.Logger) http.Handler {
	type analysis struct {
		ID        uuid.UUID        `json:"id"`
		Type      models.PrizeType `json:"type"`
		Score     float64          `json:"score"`
		Label     string           `json:"label"`
		CreatedAt time.Time        `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		records, err := analysisService.History(r.Context(), user.ID)

		switch err {
		case nil:
			analyses := make([]analysis, 0, len(records))
			for _, rec := range records {
				analyses = append(analyses, analysis{
					ID:        rec.ID,
					Type:      rec.AnalysisType,
					Score:     rec.Score,
					Label:     rec.Report.Label,
					CreatedAt: rec.CreatedAt,
				})
			}
			render.JSON(w, analyses)
		default:
			l.Error("Failed to list analysis history", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
