package models

import (
	"time"

	"github.com/google/uuid"
)

// FaceReport is the structured payload returned by the scoring service
type FaceReport struct {
	Score           float64  `json:"score" validate:"required,gte=1,lte=10"`
	Label           string   `json:"label" validate:"required"`
	Symmetry        float64  `json:"symmetry"`
	Proportions     float64  `json:"proportions"`
	Jawline         float64  `json:"jawline"`
	Eyes            float64  `json:"eyes"`
	Skin            float64  `json:"skin"`
	Harmony         float64  `json:"harmony"`
	Insights        []string `json:"insights"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// AnalysisRecord is created once per completed analysis and never mutated
// IdempotencyKey identifies the charge attempt: replaying the same attempt
// after a persistence failure never bills the user twice
type AnalysisRecord struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	AnalysisType   PrizeType
	Score          float64
	Report         FaceReport
	IdempotencyKey string
	CreatedAt      time.Time
}
