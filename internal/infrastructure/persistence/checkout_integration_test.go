package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	orderapp "github.com/shop/backend/internal/application/order"
	paymentapp "github.com/shop/backend/internal/application/payment"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/order"
	"github.com/shop/backend/internal/domain/payment"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startPostgres spins up a disposable PostgreSQL container and opens a GORM
// connection with the shop schema migrated. The locking semantics under test
// (FOR UPDATE NOWAIT, blocking FOR UPDATE) only exist on a real server.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("shop"),
		tcpostgres.WithPassword("shop"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.CategoryModel{},
		&models.ProductModel{},
		&models.ProductVariantModel{},
		&models.OrderModel{},
		&models.OrderLineModel{},
	))
	return db
}

func seedCheckoutVariant(t *testing.T, db *gorm.DB, stock int) *catalog.ProductVariant {
	t.Helper()
	ctx := context.Background()

	c := seedCategory(t, db, "Mates "+uuid.NewString()[:8])
	p := seedProduct(t, db, c.ID, "Mate Imperial "+uuid.NewString()[:8])

	v, err := catalog.NewProductVariant(p.ID, "SKU-"+uuid.NewString()[:8], "Clasico",
		decimal.RequireFromString("1500.00"), stock)
	require.NoError(t, err)
	require.NoError(t, NewGormVariantRepository(db).Save(ctx, v))
	return v
}

func checkoutRequest(variantID uuid.UUID, qty int) orderapp.CreateOrderRequest {
	return orderapp.CreateOrderRequest{
		Items: []orderapp.CreateOrderItemInput{{VariantID: variantID, Quantity: qty}},
		ShippingAddress: orderapp.ShippingAddressInput{
			Street:     "Av. Corrientes",
			Number:     "1234",
			City:       "Buenos Aires",
			PostalCode: "C1043",
			Country:    "Argentina",
		},
		PaymentMethod: "mercadopago",
	}
}

func TestCheckout_Postgres(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	shipping := orderapp.ShippingPolicy{FlatRate: decimal.RequireFromString("500")}
	svc := orderapp.NewOrderService(NewGormOrderRepository(db), NewGormTransactionScope(db), shipping)

	t.Run("checkout decrements stock and settles the total", func(t *testing.T) {
		v := seedCheckoutVariant(t, db, 10)

		resp, err := svc.Create(ctx, uuid.New(), checkoutRequest(v.ID, 3))
		require.NoError(t, err)

		assert.Equal(t, string(order.StatusPending), resp.Status)
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("5000")), resp.Total.String())

		stored, err := NewGormVariantRepository(db).FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, stored.Stock)
	})

	t.Run("failed checkout leaves no partial state", func(t *testing.T) {
		v := seedCheckoutVariant(t, db, 2)

		_, err := svc.Create(ctx, uuid.New(), checkoutRequest(v.ID, 5))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		stored, err := NewGormVariantRepository(db).FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Stock, "stock untouched after rollback")
	})

	t.Run("concurrent checkout on a held lock fails fast", func(t *testing.T) {
		v := seedCheckoutVariant(t, db, 10)

		// Hold the row lock in an open transaction
		holder := db.Begin()
		require.NoError(t, holder.Error)
		defer holder.Rollback()

		_, err := NewGormVariantRepository(holder).LockForCheckout(ctx, []uuid.UUID{v.ID})
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := svc.Create(ctx, uuid.New(), checkoutRequest(v.ID, 1))
			done <- err
		}()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		case <-time.After(10 * time.Second):
			t.Fatal("checkout queued behind the lock instead of failing fast")
		}
	})

	t.Run("oversell race admits exactly the available stock", func(t *testing.T) {
		v := seedCheckoutVariant(t, db, 1)

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Create(ctx, uuid.New(), checkoutRequest(v.ID, 1))
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded, "exactly one checkout wins the last unit")

		stored, err := NewGormVariantRepository(db).FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Stock)
	})

	t.Run("cancellation restores stock", func(t *testing.T) {
		v := seedCheckoutVariant(t, db, 10)
		userID := uuid.New()

		resp, err := svc.Create(ctx, userID, checkoutRequest(v.ID, 4))
		require.NoError(t, err)

		cancelled, err := svc.Cancel(ctx, userID, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, string(order.StatusCancelled), cancelled.Status)

		stored, err := NewGormVariantRepository(db).FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, stored.Stock)
	})
}

// scriptedGateway answers every payment lookup with the same outcome
type scriptedGateway struct {
	externalRef string
	status      payment.PaymentStatus
}

func (g *scriptedGateway) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	return &payment.Preference{ID: "pref-it"}, nil
}

func (g *scriptedGateway) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	return &payment.Payment{ID: id, Status: g.status, ExternalReference: g.externalRef}, nil
}

func (g *scriptedGateway) GetMerchantOrder(ctx context.Context, id string) (*payment.MerchantOrder, error) {
	return &payment.MerchantOrder{ID: id, ExternalReference: g.externalRef}, nil
}

func (g *scriptedGateway) SearchPaymentsByPreference(ctx context.Context, preferenceID string) ([]payment.Payment, error) {
	return nil, nil
}

func TestReconciliation_Postgres(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	shipping := orderapp.ShippingPolicy{FlatRate: decimal.Zero}
	orderSvc := orderapp.NewOrderService(NewGormOrderRepository(db), NewGormTransactionScope(db), shipping)

	t.Run("concurrent duplicate notifications settle the order once", func(t *testing.T) {
		v := seedCheckoutVariant(t, db, 5)
		userID := uuid.New()

		resp, err := orderSvc.Create(ctx, userID, checkoutRequest(v.ID, 1))
		require.NoError(t, err)

		orderRepo := NewGormOrderRepository(db)
		o, err := orderRepo.FindByIDForUser(ctx, userID, resp.ID)
		require.NoError(t, err)
		require.NoError(t, o.AttachPreference("pref-it", o.ID.String()))
		require.NoError(t, orderRepo.Save(ctx, o))

		svc := paymentapp.NewReconciliationService(paymentapp.ReconciliationServiceConfig{
			Gateway:   &scriptedGateway{externalRef: o.ID.String(), status: payment.PaymentStatusApproved},
			OrderRepo: orderRepo,
			TxScope:   NewGormTransactionScope(db),
		})

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				evt := payment.Event{Kind: payment.EventKindPayment, ResourceID: uuid.NewString()}
				assert.NoError(t, svc.HandleEvent(ctx, evt))
			}()
		}
		wg.Wait()

		settled, err := orderRepo.FindByIDForUser(ctx, userID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, settled.Status)
		assert.NotEmpty(t, settled.PaymentID)
		assert.Equal(t, 2, settled.Version, "exactly one notification applied")
	})
}
