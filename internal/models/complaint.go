package models

// ComplaintPriority ranks support tickets
type ComplaintPriority string

const (
	PriorityLow      ComplaintPriority = "Low"
	PriorityMedium   ComplaintPriority = "Medium"
	PriorityHigh     ComplaintPriority = "High"
	PriorityCritical ComplaintPriority = "Critical"
)

// IsValid reports whether p is a known priority
func (p ComplaintPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ComplaintStatus tracks a support ticket
type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "Open"
	ComplaintInProgress ComplaintStatus = "InProgress"
	ComplaintResolved   ComplaintStatus = "Resolved"
	ComplaintEscalated  ComplaintStatus = "Escalated"
)

// IsValid reports whether s is a known complaint status
func (s ComplaintStatus) IsValid() bool {
	switch s {
	case ComplaintOpen, ComplaintInProgress, ComplaintResolved, ComplaintEscalated:
		return true
	}
	return false
}

// Complaint is a support ticket raised against a booking or agent
type Complaint struct {
	ID          string             `json:"id,omitempty"`
	BookingID   *string            `json:"booking_id,omitempty"`
	Subject     *string            `json:"subject,omitempty"`
	Description *string            `json:"description,omitempty"`
	Priority    *ComplaintPriority `json:"priority,omitempty"`
	Status      *ComplaintStatus   `json:"status,omitempty"`
	Resolution  *string            `json:"resolution,omitempty"`
}
