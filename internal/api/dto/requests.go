package dto

import (
	"time"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/domain/threshold"
)

// DateLayout is the format of calendar dates in requests.
const DateLayout = "2006-01-02"

// GroupRequest creates or replaces a group.
type GroupRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	Category       string `json:"category" binding:"omitempty,oneof=office ac"`
	PropertyType   string `json:"property_type" binding:"max=100"`
	PropertyNumber string `json:"property_number" binding:"max=100"`
	NumberOfUnits  int    `json:"number_of_units" binding:"gte=0"`
	ParentGroupID  string `json:"parent_group_id"`
}

// ToGroup converts the request into a domain group with the given id.
func (r GroupRequest) ToGroup(id string) consumption.Group {
	return consumption.Group{
		ID:             id,
		Name:           r.Name,
		Category:       consumption.Category(r.Category),
		PropertyType:   r.PropertyType,
		PropertyNumber: r.PropertyNumber,
		NumberOfUnits:  r.NumberOfUnits,
		ParentGroupID:  r.ParentGroupID,
	}
}

// ReadingRequest creates or replaces a reading. Kwh is a pointer so that an
// explicit zero passes the required check.
type ReadingRequest struct {
	ID              string   `json:"id"`
	Name            string   `json:"name" binding:"max=200"`
	Kwh             *float64 `json:"kwh" binding:"required,gte=0"`
	GroupID         string   `json:"group_id"`
	IsSharedCounter bool     `json:"is_shared_counter"`
}

// ToReading converts the request into a domain reading.
func (r ReadingRequest) ToReading() consumption.Reading {
	return consumption.Reading{
		ID:              r.ID,
		Name:            r.Name,
		Kwh:             *r.Kwh,
		GroupID:         r.GroupID,
		IsSharedCounter: r.IsSharedCounter,
	}
}

// ConsumptionRequest updates the kWh of one reading.
type ConsumptionRequest struct {
	Kwh *float64 `json:"kwh" binding:"required,gte=0"`
}

// GenerateRequest asks for default readings in a group.
type GenerateRequest struct {
	GroupID        string `json:"group_id" binding:"required"`
	Count          int    `json:"count" binding:"gte=0,lte=500"`
	SharedCounters int    `json:"shared_counters" binding:"gte=0,lte=500"`
}

// BillRequest sets the bill of a category.
type BillRequest struct {
	TotalAmount  *float64 `json:"total_amount" binding:"required,gte=0"`
	BillingDate  string   `json:"billing_date" binding:"omitempty,datetime=2006-01-02"`
	ProviderName string   `json:"provider_name" binding:"max=200"`
	BillNumber   string   `json:"bill_number" binding:"max=100"`
	Description  string   `json:"description" binding:"max=1000"`
}

// ToBill converts the request into a domain bill. BillingDate has already
// passed the datetime check.
func (r BillRequest) ToBill() consumption.Bill {
	b := consumption.Bill{
		TotalAmount:  *r.TotalAmount,
		ProviderName: r.ProviderName,
		BillNumber:   r.BillNumber,
		Description:  r.Description,
	}
	if r.BillingDate != "" {
		b.BillingDate, _ = time.Parse(DateLayout, r.BillingDate)
	}
	return b
}

// ThresholdRequest sets the limit of a reading. Active defaults to true.
type ThresholdRequest struct {
	Category  string   `json:"category" binding:"required,oneof=office ac"`
	ReadingID string   `json:"reading_id" binding:"required"`
	Limit     *float64 `json:"limit_kwh" binding:"required,gte=0"`
	Active    *bool    `json:"active"`
}

// ToThreshold converts the request into a domain threshold.
func (r ThresholdRequest) ToThreshold() threshold.Threshold {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return threshold.Threshold{
		Category:  consumption.Category(r.Category),
		ReadingID: r.ReadingID,
		Limit:     *r.Limit,
		Active:    active,
	}
}

// RegistryRequest records the company occupying a reading.
type RegistryRequest struct {
	ID            string `json:"id"`
	Category      string `json:"category" binding:"required,oneof=office ac"`
	ReadingID     string `json:"reading_id" binding:"required"`
	GroupID       string `json:"group_id"`
	CompanyName   string `json:"company_name" binding:"required,max=200"`
	ContactPerson string `json:"contact_person" binding:"max=200"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone" binding:"max=50"`
	Notes         string `json:"notes" binding:"max=2000"`
}

// ToRegistry converts the request into a domain registry entry.
func (r RegistryRequest) ToRegistry() consumption.OfficeRegistry {
	return consumption.OfficeRegistry{
		ID:            r.ID,
		Category:      consumption.Category(r.Category),
		ReadingID:     r.ReadingID,
		GroupID:       r.GroupID,
		CompanyName:   r.CompanyName,
		ContactPerson: r.ContactPerson,
		Email:         r.Email,
		Phone:         r.Phone,
		Notes:         r.Notes,
	}
}

// AdministratorRequest names the manager of a condominium.
type AdministratorRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"max=50"`
}

// CompanyRequest replaces the company info.
type CompanyRequest struct {
	ID            string                `json:"id"`
	Name          string                `json:"name" binding:"required,max=200"`
	Type          string                `json:"type" binding:"required,oneof=company condominium"`
	Address       string                `json:"address" binding:"max=500"`
	VATNumber     string                `json:"vat_number" binding:"max=50"`
	Administrator *AdministratorRequest `json:"administrator"`
	LogoURL       string                `json:"logo_url" binding:"omitempty,url"`
}

// ToCompanyInfo converts the request into domain company info.
func (r CompanyRequest) ToCompanyInfo() consumption.CompanyInfo {
	info := consumption.CompanyInfo{
		ID:        r.ID,
		Name:      r.Name,
		Type:      consumption.CompanyType(r.Type),
		Address:   r.Address,
		VATNumber: r.VATNumber,
		LogoURL:   r.LogoURL,
	}
	if r.Administrator != nil {
		info.Administrator = &consumption.Administrator{
			Name:  r.Administrator.Name,
			Email: r.Administrator.Email,
			Phone: r.Administrator.Phone,
		}
	}
	return info
}

// AllocateRequest runs the allocator on an ad-hoc reading list.
type AllocateRequest struct {
	Readings    []ReadingRequest `json:"readings" binding:"dive"`
	TotalAmount *float64         `json:"total_amount" binding:"required,gte=0"`
}
