package spin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/repository"
	"github.com/looksia/looksledger/internal/service/reward"
)

// SpinResult is the authoritative outcome of one resolved spin
// It is decided the instant the transaction commits; any wheel animation
// only replays the already decided result
type SpinResult struct {
	Prize   models.PrizeType
	Record  models.SpinRecord
	Balance models.CreditBalance
}

type SpinService struct {
	storage repository.Storage
	engine  *reward.Engine
}

func NewService(storage repository.Storage, engine *reward.Engine) *SpinService {
	return &SpinService{
		storage: storage,
		engine:  engine,
	}
}

// Spin consumes one spin token, draws a reward, grants it and journals it
// as one transaction. The consume statement is conditional, so two requests
// racing over a single remaining token resolve to exactly one winner; the
// loser gets apperrors.ErrInsufficientCredit and no effect is applied
func (s *SpinService) Spin(ctx context.Context, userID uuid.UUID) (SpinResult, error) {
	// The draw is pure and cheap, keep it outside the transaction
	prize := s.engine.Draw()

	var result SpinResult
	err := s.storage.InTx(ctx, func(stor repository.Storage) error {
		if _, err := stor.Credits().Consume(ctx, userID, models.CreditSpins); err != nil {
			return err
		}

		balance, err := stor.Credits().Grant(ctx, userID, prize.CreditKind(), 1)
		if err != nil {
			return err
		}

		record, err := stor.Spins().CreateRecord(ctx, models.SpinRecord{
			ID:        uuid.New(),
			UserID:    userID,
			PrizeType: prize,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		result = SpinResult{Prize: prize, Record: record, Balance: balance}
		return nil
	})

	if err != nil {
		return SpinResult{}, err
	}

	return result, nil
}

func (s *SpinService) History(ctx context.Context, userID uuid.UUID) ([]models.SpinRecord, error) {
	return s.storage.Spins().ListRecords(ctx, userID)
}
