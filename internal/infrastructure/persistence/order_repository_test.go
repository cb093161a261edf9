package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/order"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var orderColumns = []string{
	"id", "created_at", "updated_at", "version",
	"user_id", "status", "total", "shipping_cost", "shipping_address",
	"payment_method", "payment_id", "preference_id", "external_reference", "tracking_number",
}

func orderRow(id, userID uuid.UUID, status, externalRef string) *sqlmock.Rows {
	now := time.Now()
	address := []byte(`{"street":"Av. Corrientes","number":"1234","city":"Buenos Aires","postal_code":"C1043","country":"Argentina"}`)
	return sqlmock.NewRows(orderColumns).
		AddRow(id, now, now, 1, userID, status, "3800.00", "500.00", address,
			"mercadopago", "", "pref-1", externalRef, "")
}

func TestGormOrderRepository_FindByExternalReferenceForUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("locks the row by correlation key", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db.DB)

		orderID := uuid.New()
		userID := uuid.New()
		ref := orderID.String()

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE external_reference = \$1 ORDER BY "orders"\."id" LIMIT \$2 FOR UPDATE`).
			WithArgs(ref, 1).
			WillReturnRows(orderRow(orderID, userID, "pending", ref))

		o, err := repo.FindByExternalReferenceForUpdate(ctx, ref)
		require.NoError(t, err)

		assert.Equal(t, orderID, o.ID)
		assert.Equal(t, order.StatusPending, o.Status)
		assert.Equal(t, ref, o.ExternalReference)
		assert.True(t, o.Total.Equal(decimal.RequireFromString("3800")))
		assert.Equal(t, "Buenos Aires", o.ShippingAddress.City())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown reference reports not found", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db.DB)

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE external_reference = \$1`).
			WillReturnRows(sqlmock.NewRows(orderColumns))

		_, err := repo.FindByExternalReferenceForUpdate(ctx, "nope")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_FindByIDForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("loads the order with its lines", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db.DB)

		orderID := uuid.New()
		userID := uuid.New()
		lineID := uuid.New()
		variantID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE user_id = \$1 AND id = \$2`).
			WithArgs(userID, orderID, 1).
			WillReturnRows(orderRow(orderID, userID, "paid", orderID.String()))
		mock.ExpectQuery(`SELECT \* FROM "order_lines" WHERE "order_lines"\."order_id" = \$1`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "created_at", "updated_at", "order_id", "variant_id",
				"sku", "product_name", "quantity", "price_at_purchase",
			}).AddRow(lineID, now, now, orderID, variantID, "MATE-001", "Mate Imperial", 2, "1500.00"))

		o, err := repo.FindByIDForUser(ctx, userID, orderID)
		require.NoError(t, err)

		assert.Equal(t, order.StatusPaid, o.Status)
		require.Len(t, o.Lines, 1)
		assert.Equal(t, "MATE-001", o.Lines[0].SKU)
		assert.Equal(t, 2, o.Lines[0].Quantity)
		assert.True(t, o.Lines[0].PriceAtPurchase.Equal(decimal.RequireFromString("1500")))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("another buyer's order reports not found", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db.DB)

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE user_id = \$1 AND id = \$2`).
			WillReturnRows(sqlmock.NewRows(orderColumns))

		_, err := repo.FindByIDForUser(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_CountForUser(t *testing.T) {
	ctx := context.Background()

	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormOrderRepository(db.DB)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestGormOrderRepository_Save(t *testing.T) {
	ctx := context.Background()

	newOrder := func(t *testing.T) *order.Order {
		t.Helper()
		addr, err := valueobject.NewShippingAddress("Av. Corrientes", "1234", "Buenos Aires", "C1043", "Argentina")
		require.NoError(t, err)
		o, err := order.NewOrder(uuid.New(), addr, "mercadopago")
		require.NoError(t, err)
		return o
	}

	t.Run("updates the header row", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db.DB)

		o := newOrder(t)
		o.MarkPaid("pay-1")

		mock.ExpectExec(`UPDATE "orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(ctx, o))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished row reports not found", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db.DB)

		mock.ExpectExec(`UPDATE "orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Save(ctx, newOrder(t))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_Create_WithoutPreference(t *testing.T) {
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OrderModel{}, &models.OrderLineModel{}))
	repo := NewGormOrderRepository(db)

	addr, err := valueobject.NewShippingAddress("Av. Corrientes", "1234", "Buenos Aires", "C1043", "Argentina")
	require.NoError(t, err)

	newPending := func(t *testing.T) *order.Order {
		t.Helper()
		o, err := order.NewOrder(uuid.New(), addr, "mercadopago")
		require.NoError(t, err)
		return o
	}

	t.Run("orders that never reached the provider do not collide", func(t *testing.T) {
		first := newPending(t)
		second := newPending(t)

		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second), "second checkout must not trip the reference index")

		var refs []*string
		require.NoError(t, db.Model(&models.OrderModel{}).
			Where("id IN ?", []uuid.UUID{first.ID, second.ID}).
			Pluck("external_reference", &refs).Error)
		require.Len(t, refs, 2)
		assert.Nil(t, refs[0])
		assert.Nil(t, refs[1])
	})

	t.Run("attached reference round-trips and stays unique", func(t *testing.T) {
		o := newPending(t)
		require.NoError(t, repo.Create(ctx, o))

		require.NoError(t, o.AttachPreference("pref-1", o.ID.String()))
		require.NoError(t, repo.Save(ctx, o))

		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID.String(), found.ExternalReference)

		stolen := newPending(t)
		require.NoError(t, repo.Create(ctx, stolen))
		require.NoError(t, stolen.AttachPreference("pref-2", o.ID.String()))
		assert.Error(t, repo.Save(ctx, stolen), "duplicate correlation key must be rejected")
	})
}

func TestGormOrderRepository_CreateLines(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts all lines in one batch", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db.DB)

		orderID := uuid.New()
		l1, err := order.NewLine(orderID, uuid.New(), "SKU-1", "Mate", 2, decimal.RequireFromString("1500"))
		require.NoError(t, err)
		l2, err := order.NewLine(orderID, uuid.New(), "SKU-2", "Bombilla", 1, decimal.RequireFromString("800"))
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "order_lines"`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, repo.CreateLines(ctx, []order.Line{*l1, *l2}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch issues no statement", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db.DB)

		require.NoError(t, repo.CreateLines(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
