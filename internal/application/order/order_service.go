package order

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/order"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderService handles checkout, cancellation and buyer-facing order reads
type OrderService struct {
	orderRepo order.Repository
	txScope   TransactionScope
	shipping  ShippingPolicy
}

// NewOrderService creates a new OrderService. orderRepo serves reads outside
// transactions; all checkout and cancellation writes go through txScope.
func NewOrderService(orderRepo order.Repository, txScope TransactionScope, shipping ShippingPolicy) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		txScope:   txScope,
		shipping:  shipping,
	}
}

// Create runs the checkout flow for a buyer. Everything happens inside one
// transaction: the order header is inserted with a zero total, all requested
// variant rows are locked in a single fail-fast batch, quantities and product
// state are validated against the locked rows, unit prices are frozen onto
// the lines, and the stock counters, lines and settled total are written
// before the locks release on commit.
//
// If any requested variant row is locked by a concurrent checkout the whole
// call fails with CONCURRENCY_CONFLICT instead of queueing; partial
// reservations never survive because the transaction rolls back as a unit.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order must contain at least one item")
	}

	// Merge duplicate variant entries so each row is locked and decremented
	// exactly once.
	quantities := make(map[uuid.UUID]int, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		quantities[item.VariantID] += item.Quantity
	}

	variantIDs := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		variantIDs = append(variantIDs, id)
	}
	// Deterministic lock order keeps concurrent checkouts from deadlocking
	// before NOWAIT can resolve them.
	sort.Slice(variantIDs, func(i, j int) bool {
		return variantIDs[i].String() < variantIDs[j].String()
	})

	address, err := valueobject.NewShippingAddress(
		req.ShippingAddress.Street,
		req.ShippingAddress.Number,
		req.ShippingAddress.City,
		req.ShippingAddress.PostalCode,
		req.ShippingAddress.Country,
		valueobject.WithState(req.ShippingAddress.State),
		valueobject.WithNotes(req.ShippingAddress.Notes),
	)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	newOrder, err := order.NewOrder(userID, address, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Header first: lines and the settled total need the order ID, and
		// the placeholder row keeps the write ordering identical for every
		// checkout.
		if err := repos.OrderRepo().Create(ctx, newOrder); err != nil {
			return err
		}

		locked, err := repos.VariantRepo().LockForCheckout(ctx, variantIDs)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*catalog.LockedVariant, len(locked))
		for i := range locked {
			byID[locked[i].ID] = &locked[i]
		}

		missing := make([]string, 0)
		for _, id := range variantIDs {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id.String())
			}
		}
		if len(missing) > 0 {
			return shared.NewDomainError("VARIANT_NOT_FOUND",
				"Product variants do not exist: "+strings.Join(missing, ", "))
		}

		lines := make([]order.Line, 0, len(variantIDs))
		adjustments := make([]catalog.StockAdjustment, 0, len(variantIDs))
		for _, id := range variantIDs {
			v := byID[id]
			if !v.ProductActive {
				return shared.NewDomainError("PRODUCT_UNAVAILABLE",
					fmt.Sprintf("Product %q is no longer available", v.ProductName))
			}
			qty := quantities[id]
			if v.Stock < qty {
				return shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Insufficient stock for %s: %d available, %d requested", v.SKU, v.Stock, qty))
			}

			line, err := order.NewLine(newOrder.ID, v.ID, v.SKU, lineTitle(v), qty, v.Price)
			if err != nil {
				return err
			}
			lines = append(lines, *line)
			adjustments = append(adjustments, catalog.StockAdjustment{
				VariantID: v.ID,
				Stock:     v.Stock - qty,
			})
		}

		if err := repos.OrderRepo().CreateLines(ctx, lines); err != nil {
			return err
		}
		if err := repos.VariantRepo().UpdateStockBatch(ctx, adjustments); err != nil {
			return err
		}

		subtotal := decimal.Zero
		for i := range lines {
			subtotal = subtotal.Add(lines[i].Subtotal())
		}

		newOrder.Lines = lines
		newOrder.ShippingCost = s.shipping.CostFor(subtotal)
		newOrder.SettleTotal()
		return repos.OrderRepo().Save(ctx, newOrder)
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(newOrder)
	return &response, nil
}

// lineTitle combines product and variant names the way they appear on the
// order line and later on the payment preference.
func lineTitle(v *catalog.LockedVariant) string {
	if v.VariantName != "" && v.VariantName != v.ProductName {
		return v.ProductName + " - " + v.VariantName
	}
	return v.ProductName
}

// Cancel cancels a buyer's pending order and returns its reserved stock.
// Another buyer's order is rejected as forbidden; paid, shipped and
// delivered orders cannot be cancelled.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	var cancelled *order.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return shared.ErrForbidden
		}

		if err := o.Cancel(); err != nil {
			return err
		}

		for i := range o.Lines {
			l := &o.Lines[i]
			if err := repos.VariantRepo().RestoreStock(ctx, l.VariantID, l.Quantity); err != nil {
				return err
			}
		}

		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(cancelled)
	return &response, nil
}

// GetByID retrieves one of the buyer's orders with its lines
func (s *OrderService) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByIDForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves the buyer's orders, newest first
func (s *OrderService) List(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[OrderListItemResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	orders, err := s.orderRepo.FindAllForUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.CountForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]OrderListItemResponse, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderListItemResponse(&orders[i]))
	}

	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}
