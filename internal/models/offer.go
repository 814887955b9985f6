package models

import "time"

// DiscountType selects how an offer's discount value is interpreted
type DiscountType string

const (
	DiscountPercentage  DiscountType = "Percentage"
	DiscountFixedAmount DiscountType = "FixedAmount"
)

// OfferStatus represents the availability of an offer
type OfferStatus string

const (
	OfferStatusActive   OfferStatus = "Active"
	OfferStatusInactive OfferStatus = "Inactive"
	OfferStatusExpired  OfferStatus = "Expired"
)

// IsValid reports whether s is a known offer status
func (s OfferStatus) IsValid() bool {
	return s == OfferStatusActive || s == OfferStatusInactive || s == OfferStatusExpired
}

// Offer is a discount rule. Pointer fields are optional so partial records
// can be validated during edits.
type Offer struct {
	ID            string        `json:"id,omitempty"`
	Title         *string       `json:"title,omitempty"`
	Description   *string       `json:"description,omitempty"`
	DiscountType  *DiscountType `json:"discount_type,omitempty"`
	DiscountValue *float64      `json:"discount_value,omitempty"`
	ValidFrom     *time.Time    `json:"valid_from,omitempty"`
	ValidTo       *time.Time    `json:"valid_to,omitempty"`
	MaxUsage      *int          `json:"max_usage,omitempty"`
	UsageCount    *int          `json:"usage_count,omitempty"`
	Status        *OfferStatus  `json:"status,omitempty"`
}
