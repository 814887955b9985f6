// Package validation holds the business rules every booking, offer,
// complaint and user record passes before it reaches storage.
//
// Validators only check the fields present on a record, so the same rules
// serve create and patch flows. They fail fast on the first violation and
// sanitize present free-text fields in place.
package validation

import (
	"unicode/utf8"

	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/pkg/validator"
)

const (
	maxNameLength            = 100
	minNameLength            = 2
	maxItemNameLength        = 200
	maxSpecialRequestsLength = 500
	maxRegionLength          = 100
	minGuests                = 1
	maxGuests                = 20

	minOfferTitleLength       = 3
	maxOfferTitleLength       = 100
	maxOfferDescriptionLength = 500
	minPercentageDiscount     = 1
	maxPercentageDiscount     = 100
	minFixedDiscount          = 1
	maxFixedDiscount          = 1_000_000

	minSubjectLength     = 5
	maxSubjectLength     = 200
	minDescriptionLength = 10
	maxDescriptionLength = 2000
	maxResolutionLength  = 2000

	maxCommissionRatePercent = 25
)

// ValidateBookingCreate checks that a new booking carries every required
// field, then applies the booking rules.
func ValidateBookingCreate(r *models.CreateBookingRequest) error {
	required := []struct {
		field string
		value interface{}
	}{
		{"type", string(r.Type)},
		{"item_id", r.ItemID},
		{"item_name", r.ItemName},
		{"customer_name", r.CustomerName},
		{"customer_email", r.CustomerEmail},
		{"travel_date", r.TravelDate},
	}
	for _, rq := range required {
		if err := Required(rq.field, rq.value); err != nil {
			return err
		}
	}
	return ValidateBooking(r.Fields())
}

// ValidateBooking applies the booking rules to the fields present in f
func ValidateBooking(f *models.BookingFields) error {
	if f.Type != nil && !f.Type.IsValid() {
		return newError("type", "Booking type must be Cruise or Hotel")
	}

	sanitizeInPlace(f.ItemID)
	sanitizeInPlace(f.ItemName)
	if f.ItemName != nil {
		if err := lengthBetween("item_name", *f.ItemName, 1, maxItemNameLength); err != nil {
			return err
		}
	}

	sanitizeInPlace(f.CustomerName)
	if f.CustomerName != nil {
		if err := lengthBetween("customer_name", *f.CustomerName, minNameLength, maxNameLength); err != nil {
			return err
		}
	}

	if f.CustomerEmail != nil {
		if !validator.Email(*f.CustomerEmail) {
			return newError("customer_email", "Customer email is not a valid email address")
		}
	}

	if f.CustomerPhone != nil && *f.CustomerPhone != "" {
		if !validator.Phone(*f.CustomerPhone) {
			return newError("customer_phone", "Customer phone is not a valid phone number")
		}
	}

	if f.TotalAmount != nil {
		if *f.TotalAmount <= 0 {
			return newError("total_amount", "Total amount must be greater than 0")
		}
		if *f.TotalAmount > models.MaxBookingAmount {
			return newError("total_amount", "Total amount cannot exceed 10,000,000")
		}
	}

	if f.CommissionAmount != nil && *f.CommissionAmount < 0 {
		return newError("commission_amount", "Commission amount cannot be negative")
	}

	if f.TotalAmount != nil && f.CommissionAmount != nil {
		if *f.CommissionAmount > *f.TotalAmount*models.MaxCommissionRatio {
			return newError("commission_amount", "Commission cannot exceed 25%% of the total amount")
		}
	}

	if f.Guests != nil && (*f.Guests < minGuests || *f.Guests > maxGuests) {
		return newError("guests", "Guests must be between %d and %d", minGuests, maxGuests)
	}

	if f.BookingDate != nil && f.TravelDate != nil {
		if !f.BookingDate.Before(*f.TravelDate) {
			return newError("travel_date", "Travel date must be after the booking date")
		}
	}

	sanitizeInPlace(f.SpecialRequests)
	if f.SpecialRequests != nil && utf8.RuneCountInString(*f.SpecialRequests) > maxSpecialRequestsLength {
		return newError("special_requests", "Special requests cannot exceed %d characters", maxSpecialRequestsLength)
	}

	sanitizeInPlace(f.Region)
	if f.Region != nil && utf8.RuneCountInString(*f.Region) > maxRegionLength {
		return newError("region", "Region cannot exceed %d characters", maxRegionLength)
	}

	if f.Status != nil && !f.Status.IsValid() {
		return newError("status", "Unknown booking status %q", string(*f.Status))
	}

	if f.PaymentStatus != nil && !f.PaymentStatus.IsValid() {
		return newError("payment_status", "Unknown payment status %q", string(*f.PaymentStatus))
	}

	return nil
}

// ValidateOffer applies the discount rules to the fields present in o
func ValidateOffer(o *models.Offer) error {
	sanitizeInPlace(o.Title)
	if o.Title != nil {
		if err := lengthBetween("title", *o.Title, minOfferTitleLength, maxOfferTitleLength); err != nil {
			return err
		}
	}

	sanitizeInPlace(o.Description)
	if o.Description != nil && utf8.RuneCountInString(*o.Description) > maxOfferDescriptionLength {
		return newError("description", "Description cannot exceed %d characters", maxOfferDescriptionLength)
	}

	if o.DiscountType != nil {
		switch *o.DiscountType {
		case models.DiscountPercentage, models.DiscountFixedAmount:
		default:
			return newError("discount_type", "Discount type must be Percentage or FixedAmount")
		}
	}

	if o.DiscountValue != nil {
		v := *o.DiscountValue
		if o.DiscountType != nil && *o.DiscountType == models.DiscountPercentage {
			if v < minPercentageDiscount || v > maxPercentageDiscount {
				return newError("discount_value", "Percentage discount must be between %d and %d", minPercentageDiscount, maxPercentageDiscount)
			}
		} else if v < minFixedDiscount || v > maxFixedDiscount {
			return newError("discount_value", "Fixed discount must be between %d and 1,000,000", minFixedDiscount)
		}
	}

	if o.ValidFrom != nil && o.ValidTo != nil && !o.ValidFrom.Before(*o.ValidTo) {
		return newError("valid_to", "Offer end date must be after its start date")
	}

	if o.MaxUsage != nil && *o.MaxUsage < 1 {
		return newError("max_usage", "Maximum usage must be at least 1")
	}

	if o.UsageCount != nil && *o.UsageCount < 0 {
		return newError("usage_count", "Usage count cannot be negative")
	}

	if o.MaxUsage != nil && o.UsageCount != nil && *o.UsageCount > *o.MaxUsage {
		return newError("usage_count", "Usage count cannot exceed maximum usage")
	}

	if o.Status != nil && !o.Status.IsValid() {
		return newError("status", "Offer status must be Active, Inactive or Expired")
	}

	return nil
}

// ValidateComplaint applies the support-ticket rules to the fields present in c
func ValidateComplaint(c *models.Complaint) error {
	sanitizeInPlace(c.Subject)
	if c.Subject != nil {
		if err := lengthBetween("subject", *c.Subject, minSubjectLength, maxSubjectLength); err != nil {
			return err
		}
	}

	sanitizeInPlace(c.Description)
	if c.Description != nil {
		if err := lengthBetween("description", *c.Description, minDescriptionLength, maxDescriptionLength); err != nil {
			return err
		}
	}

	if c.Priority != nil && !c.Priority.IsValid() {
		return newError("priority", "Priority must be Low, Medium, High or Critical")
	}

	if c.Status != nil && !c.Status.IsValid() {
		return newError("status", "Status must be Open, InProgress, Resolved or Escalated")
	}

	sanitizeInPlace(c.Resolution)
	if c.Resolution != nil && utf8.RuneCountInString(*c.Resolution) > maxResolutionLength {
		return newError("resolution", "Resolution cannot exceed %d characters", maxResolutionLength)
	}

	if c.Status != nil && *c.Status == models.ComplaintResolved {
		if err := Required("resolution", c.Resolution); err != nil {
			return err
		}
	}

	return nil
}

// ValidateUser applies the account rules to the fields present in u
func ValidateUser(u *models.User) error {
	sanitizeInPlace(u.Name)
	if u.Name != nil {
		if err := lengthBetween("name", *u.Name, minNameLength, maxNameLength); err != nil {
			return err
		}
	}

	if u.Email != nil && !validator.Email(*u.Email) {
		return newError("email", "Email is not a valid email address")
	}

	if u.Phone != nil && *u.Phone != "" && !validator.Phone(*u.Phone) {
		return newError("phone", "Phone is not a valid phone number")
	}

	if u.Role != nil && !models.IsValidRole(*u.Role) {
		return newError("role", "Role must be travel_agent, basic_admin or super_admin")
	}

	sanitizeInPlace(u.Region)
	if u.Region != nil && utf8.RuneCountInString(*u.Region) > maxRegionLength {
		return newError("region", "Region cannot exceed %d characters", maxRegionLength)
	}

	if u.CommissionRate != nil && (*u.CommissionRate < 0 || *u.CommissionRate > maxCommissionRatePercent) {
		return newError("commission_rate", "Commission rate must be between 0 and 25%%")
	}

	return nil
}

func lengthBetween(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return newError(field, "%s must be between %d and %d characters", humanize(field), min, max)
	}
	return nil
}
