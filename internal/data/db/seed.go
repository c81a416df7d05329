package db

import (
	"time"

	types "github.com/RakMan09/refund-returns-agent/internal/domain"
	"gorm.io/gorm"
)

// SeedOrdersIfEmpty loads the demo order book on first boot. Real
// deployments replace this with an import from the order system.
func SeedOrdersIfEmpty(db *gorm.DB) error {
	var existing int64
	if err := db.Model(&types.Order{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	delivery1 := date(2025, time.December, 5)
	delivery2 := date(2025, time.November, 14)

	return db.Create([]*types.Order{
		{
			OrderID:            "ORD-1001",
			MerchantID:         "M-001",
			CustomerEmail:      "alice@example.com",
			CustomerPhoneLast4: "1234",
			ItemID:             "ITEM-1",
			ItemCategory:       "electronics",
			OrderDate:          date(2025, time.December, 1),
			DeliveryDate:       &delivery1,
			ItemPrice:          "120.00",
			ShippingFee:        "10.00",
			Status:             "delivered",
		},
		{
			OrderID:            "ORD-1002",
			MerchantID:         "M-001",
			CustomerEmail:      "bob@example.com",
			CustomerPhoneLast4: "5678",
			ItemID:             "ITEM-2",
			ItemCategory:       "fashion",
			OrderDate:          date(2025, time.November, 10),
			DeliveryDate:       &delivery2,
			ItemPrice:          "55.00",
			ShippingFee:        "5.00",
			Status:             "delivered",
		},
	}).Error
}
