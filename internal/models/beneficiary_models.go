package models

import (
	"time"

	"relief_backend/internal/allocation"
)

// BeneficiaryType groups who receives relief goods.
type BeneficiaryType string

const (
	BeneficiaryIndividual  BeneficiaryType = "Individual"
	BeneficiaryFamily      BeneficiaryType = "Family"
	BeneficiaryCommunity   BeneficiaryType = "Community"
	BeneficiaryInstitution BeneficiaryType = "Institution"
	BeneficiaryParish      BeneficiaryType = "Parish"
)

// Valid reports whether t is a known beneficiary type.
func (t BeneficiaryType) Valid() bool {
	switch t {
	case BeneficiaryIndividual, BeneficiaryFamily, BeneficiaryCommunity, BeneficiaryInstitution, BeneficiaryParish:
		return true
	}
	return false
}

// Beneficiary is a person or group that can file requests.
type Beneficiary struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	BeneficiaryType BeneficiaryType `json:"beneficiary_type" db:"beneficiary_type"`
	ContactPerson   *string         `json:"contact_person,omitempty" db:"contact_person"`
	ContactNumber   *string         `json:"contact_number,omitempty" db:"contact_number"`
	Email           *string         `json:"email,omitempty" db:"email"`
	Address         *string         `json:"address,omitempty" db:"address"`
	City            *string         `json:"city,omitempty" db:"city"`
	Province        *string         `json:"province,omitempty" db:"province"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// BeneficiaryFilters defines the available filters for listing beneficiaries.
type BeneficiaryFilters struct {
	Search   *string `form:"search"`
	Type     *string `form:"type"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// RequestStatus is the lifecycle state of a beneficiary request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "Pending"
	RequestApproved  RequestStatus = "Approved"
	RequestFulfilled RequestStatus = "Fulfilled"
	RequestRejected  RequestStatus = "Rejected"
)

// BeneficiaryRequest is an assistance request with its requested items.
type BeneficiaryRequest struct {
	ID                int64              `json:"id" db:"id"`
	BeneficiaryID     int64              `json:"beneficiary_id" db:"beneficiary_id"`
	BeneficiaryName   string             `json:"beneficiary_name"`
	Purpose           string             `json:"purpose" db:"purpose"`
	Urgency           allocation.Urgency `json:"urgency" db:"urgency"`
	IndividualsServed int                `json:"individuals_served" db:"individuals_served"`
	Status            RequestStatus      `json:"status" db:"status"`
	RequestDate       time.Time          `json:"request_date" db:"request_date"`
	Notes             *string            `json:"notes,omitempty" db:"notes"`
	CreatedBy         *int64             `json:"created_by,omitempty" db:"created_by"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
	Items             []RequestItem      `json:"items"`
}

// RequestItem is one requested item type and quantity.
type RequestItem struct {
	ID                int64  `json:"id" db:"id"`
	RequestID         int64  `json:"request_id" db:"request_id"`
	ItemTypeID        int64  `json:"itemtype_id" db:"itemtype_id"`
	ItemTypeName      string `json:"itemtype_name"`
	QuantityRequested int    `json:"quantity_requested" db:"quantity_requested"`
}

// RequestFilters defines the available filters for listing requests.
type RequestFilters struct {
	Status        *string `form:"status"`
	Urgency       *string `form:"urgency"`
	BeneficiaryID *int64  `form:"beneficiary_id"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}

// ToAllocation converts the request into the allocation engine's input shape.
func (r *BeneficiaryRequest) ToAllocation() allocation.Request {
	items := make([]allocation.RequestItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = allocation.RequestItem{
			ItemTypeID:        it.ItemTypeID,
			ItemTypeName:      it.ItemTypeName,
			QuantityRequested: it.QuantityRequested,
		}
	}
	return allocation.Request{
		ID:                r.ID,
		BeneficiaryID:     r.BeneficiaryID,
		BeneficiaryName:   r.BeneficiaryName,
		Urgency:           r.Urgency,
		IndividualsServed: r.IndividualsServed,
		Items:             items,
	}
}
