package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/looksia/looksledger/internal/handlers/middleware"
	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/service/purchase"
	"github.com/looksia/looksledger/internal/service/spin"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	creditsService creditsService,
	spinService spinService,
	analysisService analysisService,
	purchaseService purchaseService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiuser := http.NewServeMux()

	apiuser.Handle("POST /register", handleRegister(authService, logger))
	apiuser.Handle("POST /login", handleLogin(authService, logger))
	apiuser.Handle("POST /refresh", handleTokenRefresh(authService, logger))

	apiuser.Handle("GET /me", withAuth(handleUserMe()))
	apiuser.Handle("GET /balance", withAuth(handleUserBalance(creditsService, logger)))

	apiuser.Handle("POST /spin", withAuth(handleSpin(spinService, logger)))
	apiuser.Handle("GET /spins", withAuth(handleSpinHistory(spinService, logger)))

	apiuser.Handle("POST /analyze", withAuth(handleAnalyze(analysisService, logger)))
	apiuser.Handle("GET /analyses", withAuth(handleAnalysisHistory(analysisService, logger)))

	apiuser.Handle("POST /store/purchase", withAuth(handlePurchase(purchaseService, logger)))
	apiuser.Handle("GET /store/purchases", withAuth(handlePurchaseHistory(purchaseService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with username and password
	// Creates the credit balance seeded with the starting bonus
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokens(ctx context.Context, w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefresh(r *http.Request) (string, error)

	// Resolve the authenticated user of the request
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type creditsService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (models.CreditBalance, error)
}

type spinService interface {
	Spin(ctx context.Context, userID uuid.UUID) (spin.SpinResult, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.SpinRecord, error)
}

type analysisService interface {
	Analyze(ctx context.Context, userID uuid.UUID, analysisType models.PrizeType, image string, idempotencyKey string) (models.AnalysisRecord, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.AnalysisRecord, error)
}

type purchaseService interface {
	Purchase(ctx context.Context, userID uuid.UUID, product models.ProductType, quantity int32, amount decimal.Decimal, idempotencyKey string) (purchase.PurchaseResult, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
}
