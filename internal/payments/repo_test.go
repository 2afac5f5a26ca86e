package payments

import (
	"context"
	"testing"

	"github.com/farzana24/RideN-Bite-sub001/pkg/db/models"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Restaurant{}, &models.Order{}, &models.Payment{}))
	return db
}

func seedPayment(t *testing.T, db *gorm.DB, status enums.PaymentStatus) *models.Payment {
	t.Helper()

	order := models.Order{RestaurantID: 1, UserID: 7, TotalCents: 45000}
	require.NoError(t, db.Create(&order).Error)

	payment := models.Payment{OrderID: order.ID, AmountCents: order.TotalCents, Status: status}
	require.NoError(t, db.Create(&payment).Error)
	return &payment
}

func TestCASStatusSingleWinner(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payment := seedPayment(t, db, enums.PaymentStatusInitiated)

	rows, err := repo.CASStatus(ctx, payment.OrderID, enums.PaymentStatusInitiated, enums.PaymentStatusCompleted, map[string]any{
		"transaction_id": "rnb-1-a",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Second caller still expecting INITIATED must lose.
	rows, err = repo.CASStatus(ctx, payment.OrderID, enums.PaymentStatusInitiated, enums.PaymentStatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	got, err := repo.FindByOrderID(ctx, payment.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, got.Status)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "rnb-1-a", *got.TransactionID)
}

func TestMarkInitiatedReassignsTransactionID(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payment := seedPayment(t, db, enums.PaymentStatusCancelled)

	rows, err := repo.MarkInitiated(ctx, payment.OrderID, "rnb-1-b")
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	got, err := repo.FindByOrderID(ctx, payment.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusInitiated, got.Status)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "rnb-1-b", *got.TransactionID)
}

func TestMarkInitiatedRefusesSettledPayment(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payment := seedPayment(t, db, enums.PaymentStatusCompleted)

	rows, err := repo.MarkInitiated(ctx, payment.OrderID, "rnb-1-c")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	got, err := repo.FindByOrderID(ctx, payment.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, got.Status)
}

func TestFindByOrderIDNotFound(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByOrderID(context.Background(), 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
