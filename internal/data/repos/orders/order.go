package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"github.com/RakMan09/refund-returns-agent/internal/pkg/dbctx"
	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

type OrderRepo interface {
	// Lookup resolves at most one order. A nil result with nil error
	// means not found; callers decide whether that is an error.
	Lookup(dbc dbctx.Context, orderID, email, phoneLast4 string) (*types.Order, error)
	// ListByIdentifier resolves the identifier the way customers type it:
	// ORD- prefix → order id, contains @ → email, otherwise phone last 4.
	ListByIdentifier(dbc dbctx.Context, customerIdentifier string) ([]*types.Order, error)
	ListItems(dbc dbctx.Context, orderID string) ([]*types.Order, error)
	CreateTestOrder(dbc dbctx.Context, in TestOrderInput) (string, error)
}

type TestOrderInput struct {
	CustomerEmail      string
	CustomerPhoneLast4 string
	ItemCategory       string
	Price              string
	ShippingFee        string
	Status             string
	DeliveryDate       *time.Time
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, log *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: log.With("repo", "OrderRepo")}
}

func (r *orderRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *orderRepo) Lookup(dbc dbctx.Context, orderID, email, phoneLast4 string) (*types.Order, error) {
	q := r.tx(dbc).WithContext(dbc.Ctx).Model(&types.Order{})
	switch {
	case orderID != "":
		q = q.Where("order_id = ?", orderID)
	case email != "":
		q = q.Where("customer_email = ?", email)
	case phoneLast4 != "":
		q = q.Where("customer_phone_last4 = ?", phoneLast4)
	default:
		return nil, fmt.Errorf("missing lookup key")
	}
	var out types.Order
	err := q.Limit(1).First(&out).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepo) ListByIdentifier(dbc dbctx.Context, customerIdentifier string) ([]*types.Order, error) {
	id := strings.TrimSpace(customerIdentifier)
	if id == "" {
		return nil, fmt.Errorf("missing customer_identifier")
	}
	q := r.tx(dbc).WithContext(dbc.Ctx).Model(&types.Order{})
	switch {
	case strings.HasPrefix(strings.ToUpper(id), "ORD-"):
		q = q.Where("order_id = ?", id)
	case strings.Contains(id, "@"):
		q = q.Where("customer_email = ?", id)
	default:
		q = q.Where("customer_phone_last4 = ?", id)
	}
	var out []*types.Order
	if err := q.Limit(50).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) ListItems(dbc dbctx.Context, orderID string) ([]*types.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("missing order_id")
	}
	var out []*types.Order
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.Order{}).
		Where("order_id = ?", orderID).
		Limit(50).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func shortHex(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}

func (r *orderRepo) CreateTestOrder(dbc dbctx.Context, in TestOrderInput) (string, error) {
	orderID := "ORD-" + strings.ToUpper(shortHex(10))
	itemID := "ITEM-" + strings.ToUpper(shortHex(8))
	row := &types.Order{
		OrderID:            orderID,
		MerchantID:         "M-TEST",
		CustomerEmail:      in.CustomerEmail,
		CustomerPhoneLast4: in.CustomerPhoneLast4,
		ItemID:             itemID,
		ItemCategory:       in.ItemCategory,
		OrderDate:          time.Now().UTC(),
		DeliveryDate:       in.DeliveryDate,
		ItemPrice:          in.Price,
		ShippingFee:        in.ShippingFee,
		Status:             in.Status,
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return "", err
	}
	return orderID, nil
}
