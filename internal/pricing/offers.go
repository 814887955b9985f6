package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/internal/validation"
)

var (
	ErrOfferInactive   = errors.New("offer is not active")
	ErrOfferNotStarted = errors.New("offer is not valid yet")
	ErrOfferExpired    = errors.New("offer has expired")
	ErrOfferExhausted  = errors.New("offer usage limit reached")
)

// Discount is the result of applying an offer to a total
type Discount struct {
	OriginalTotal  float64 `json:"original_total"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalTotal     float64 `json:"final_total"`
	OfferID        string  `json:"offer_id,omitempty"`
}

// ApplyOffer validates offer and discounts total with it as of at.
// The final total never drops below zero.
func ApplyOffer(total float64, offer *models.Offer, at time.Time) (Discount, error) {
	if offer == nil {
		return Discount{OriginalTotal: total, FinalTotal: total}, nil
	}
	if err := validation.Required("discount_type", offer.DiscountType); err != nil {
		return Discount{}, err
	}
	if err := validation.Required("discount_value", offer.DiscountValue); err != nil {
		return Discount{}, err
	}
	if err := validation.ValidateOffer(offer); err != nil {
		return Discount{}, err
	}

	if offer.Status != nil && *offer.Status != models.OfferStatusActive {
		return Discount{}, ErrOfferInactive
	}
	if offer.ValidFrom != nil && at.Before(*offer.ValidFrom) {
		return Discount{}, ErrOfferNotStarted
	}
	if offer.ValidTo != nil && at.After(*offer.ValidTo) {
		return Discount{}, ErrOfferExpired
	}
	if offer.MaxUsage != nil && offer.UsageCount != nil && *offer.UsageCount >= *offer.MaxUsage {
		return Discount{}, ErrOfferExhausted
	}

	var amount float64
	switch *offer.DiscountType {
	case models.DiscountPercentage:
		amount = math.Round(total * *offer.DiscountValue / 100)
	default:
		amount = *offer.DiscountValue
	}
	if amount > total {
		amount = total
	}

	return Discount{
		OriginalTotal:  total,
		DiscountAmount: amount,
		FinalTotal:     total - amount,
		OfferID:        offer.ID,
	}, nil
}
