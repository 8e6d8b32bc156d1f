package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hostelcart/hostelcart-backend/pkg/db/models"
)

// Repository exposes the profile and wallet operations this service owns.
// Account creation and credentials live with the identity provider; rows
// here are provisioned out of band.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// DebitWallet subtracts amount only when the balance covers it, in a
	// single conditional UPDATE. A false return means insufficient funds.
	DebitWallet(ctx context.Context, userID uuid.UUID, amount int) (bool, error)
	CreditWallet(ctx context.Context, userID uuid.UUID, amount int) error
}
