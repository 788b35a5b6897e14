package handlers

import (
	"net/http"

	"github.com/looksia/looksledger/internal/handlers/render"
	"github.com/looksia/looksledger/internal/handlers/userctx"
	"github.com/looksia/looksledger/internal/logger"
)

type balanceResponse struct {
	BasicAnalyses int32 `json:"basic_analyses"`
	ProAnalyses   int32 `json:"pro_analyses"`
	Spins         int32 `json:"spins"`
}

func handleUserBalance(creditsService creditsService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		balance, err := creditsService.GetBalance(r.Context(), user.ID)

		switch err {
		case nil:
			render.JSON(w, balanceResponse{
				BasicAnalyses: balance.BasicAnalyses,
				ProAnalyses:   balance.ProAnalyses,
				Spins:         balance.Spins,
			})
		default:
			l.Error("Failed to get balance", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
