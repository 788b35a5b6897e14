package e2e

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/looksia/looksledger/internal/handlers"
	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/repository/postgres"
	"github.com/looksia/looksledger/internal/service/analysis"
	"github.com/looksia/looksledger/internal/service/auth"
	"github.com/looksia/looksledger/internal/service/auth/tokenmanager"
	"github.com/looksia/looksledger/internal/service/credits"
	"github.com/looksia/looksledger/internal/service/purchase"
	"github.com/looksia/looksledger/internal/service/reward"
	"github.com/looksia/looksledger/internal/service/spin"
	"github.com/looksia/looksledger/internal/testutil"
)

type Services struct {
	AuthService     *auth.AuthService
	CreditsService  *credits.CreditService
	SpinService     *spin.SpinService
	AnalysisService *analysis.AnalysisService
	PurchaseService *purchase.PurchaseService
}

type stubScorer struct{}

func (stubScorer) AnalyzeFace(_ context.Context, _ string) (models.FaceReport, error) {
	return models.FaceReport{Score: 7.5, Label: "Attractive"}, nil
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
//
// The wheel always lands on the basic prize and the scoring collaborator
// always succeeds, which keeps the flows deterministic
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage)
		require.NoError(t, err, "auth service starting error", err)

		engine, err := reward.New(reward.DefaultTable(), func() float64 { return 0.5 })
		require.NoError(t, err, "reward engine starting error")

		cs := credits.NewService(storage)
		ss := spin.NewService(storage, engine)
		ans := analysis.NewService(storage, stubScorer{}, logger.NewNoOpLogger())
		ps := purchase.NewService(storage)

		// Complete all together as router
		router := handlers.NewRouter(as, cs, ss, ans, ps, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService:     as,
			CreditsService:  cs,
			SpinService:     ss,
			AnalysisService: ans,
			PurchaseService: ps,
		})
	})
}
