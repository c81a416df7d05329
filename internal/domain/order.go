package types

import "time"

// Order is an immutable reference entity. The orchestrator never writes
// to it outside of seeding and test-order creation.
type Order struct {
	OrderID            string     `gorm:"type:text;primaryKey" json:"order_id"`
	MerchantID         string     `gorm:"type:text;not null" json:"merchant_id"`
	CustomerEmail      string     `gorm:"type:text;not null;index" json:"customer_email"`
	CustomerPhoneLast4 string     `gorm:"type:text;not null;index" json:"customer_phone_last4"`
	ItemID             string     `gorm:"type:text;not null" json:"item_id"`
	ItemCategory       string     `gorm:"type:text;not null" json:"item_category"`
	OrderDate          time.Time  `gorm:"not null" json:"order_date"`
	DeliveryDate       *time.Time `json:"delivery_date,omitempty"`
	ItemPrice          string     `gorm:"type:text;not null" json:"item_price"`
	ShippingFee        string     `gorm:"type:text;not null" json:"shipping_fee"`
	Status             string     `gorm:"type:text;not null" json:"status"` // processing|shipped|delivered
}

func (Order) TableName() string { return "orders" }
