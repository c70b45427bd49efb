package domain

import "time"

// EnquiryType distinguishes plain questions from price bids.
type EnquiryType string

const (
	EnquiryTypeEnquiry EnquiryType = "enquiry"
	EnquiryTypeBidding EnquiryType = "bidding"
)

// Valid reports whether t is a known enquiry type.
func (t EnquiryType) Valid() bool {
	return t == EnquiryTypeEnquiry || t == EnquiryTypeBidding
}

// EnquiryStatus tracks admin follow-up.
type EnquiryStatus string

const (
	EnquiryPending   EnquiryStatus = "pending"
	EnquiryContacted EnquiryStatus = "contacted"
	EnquiryRejected  EnquiryStatus = "rejected"
)

// Valid reports whether s is a known enquiry status.
func (s EnquiryStatus) Valid() bool {
	switch s {
	case EnquiryPending, EnquiryContacted, EnquiryRejected:
		return true
	}
	return false
}

// Enquiry is a buyer's question or bid on a listing.
type Enquiry struct {
	ID        string
	CarID     string
	Type      EnquiryType
	Name      string
	Email     string
	Phone     string
	Message   *string
	Price     *int64
	Status    EnquiryStatus
	CreatedAt time.Time
}
