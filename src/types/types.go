package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type JSONBAny struct {
	Inner any
}

// jsonDBType is jsonb on postgres. Other dialects get text so a bare JSON
// number is not coerced by column affinity.
func jsonDBType(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func (JSONB) GormDBDataType(db *gorm.DB, field *schema.Field) string { return jsonDBType(db) }
func (JSONBAny) GormDBDataType(db *gorm.DB, field *schema.Field) string { return jsonDBType(db) }
func (SeatMap) GormDBDataType(db *gorm.DB, field *schema.Field) string { return jsonDBType(db) }
func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string { return jsonDBType(db) }

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, &a)
}

func (a JSONBAny) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a.Inner)
	return string(valueString), err
}
func (a *JSONBAny) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	var inner any
	if err := json.Unmarshal(b, &inner); err != nil {
		return err
	}
	a.Inner = inner
	return nil
}

func (a JSONBAny) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Inner)
}

// SeatMap is the serialized form of a seat ledger: date -> seats.
type SeatMap map[string]int

func (a SeatMap) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *SeatMap) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	m := SeatMap{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*a = m
	return nil
}

func (a SeatMap) Clone() SeatMap {
	if a == nil {
		return nil
	}
	c := make(SeatMap, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

type StringList []string

func (a StringList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StringList) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	var l StringList
	if err := json.Unmarshal(b, &l); err != nil {
		return err
	}
	*a = l
	return nil
}

func (a StringList) Clone() StringList {
	if a == nil {
		return nil
	}
	return append(StringList{}, a...)
}

func scanBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("type assertion to []byte failed")
	}
}

type RideCategory string

const (
	RIDE_ONE_TIME  RideCategory = "one-time"
	RIDE_COMMUTING RideCategory = "commuting"
)

type BookingStatus string

const (
	BOOKING_BOOKED   BookingStatus = "Booked"
	BOOKING_ONGOING  BookingStatus = "Ongoing"
	BOOKING_DONE     BookingStatus = "Done"
	BOOKING_CANCELED BookingStatus = "Canceled"
)

type PaymentStatus string

const (
	PAYMENT_SUCCESS            PaymentStatus = "Success"
	PAYMENT_PARTIALLY_REFUNDED PaymentStatus = "Partially Refunded"
	PAYMENT_REFUNDED           PaymentStatus = "Refunded"
)

type ProposalStatus string

const (
	PROPOSAL_PENDING  ProposalStatus = "pending"
	PROPOSAL_ACCEPTED ProposalStatus = "accepted"
	PROPOSAL_REJECTED ProposalStatus = "rejected"
)

type Role string

const (
	ROLE_PASSENGER Role = "passenger"
	ROLE_DRIVER    Role = "driver"
	ROLE_MANAGER   Role = "manager"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type PublishRideRequestBody struct {
	Origin          string   `json:"origin" binding:"required"`
	Destination     string   `json:"destination" binding:"required"`
	PricePerSeat    float64  `json:"price_per_seat" binding:"required,gt=0"`
	SeatsPerDate    int      `json:"seats_per_date" binding:"required,min=1"`
	Category        string   `json:"category" binding:"required,oneof=one-time commuting"`
	DepartureAt     string   `json:"departure_at" binding:"omitempty,ridedatetime"`
	RecurrenceDates []string `json:"recurrence_dates" binding:"omitempty,dive,datekey"`
	CommuteTimes    []string `json:"commute_times" binding:"omitempty,dive,commutetime"`
}

type ReserveSeatsRequestBody struct {
	Dates        []string `json:"dates" binding:"omitempty,dive,datekey"`
	Seats        int      `json:"seats" binding:"required,min=1"`
	ContactEmail string   `json:"contact_email" binding:"required,email"`
}

type JourneyRequestBody struct {
	RideDate string `json:"ride_date" binding:"omitempty,datekey"`
}

type RateRideRequestBody struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	RideDate string `json:"ride_date" binding:"omitempty,datekey"`
	Comment  string `json:"comment" binding:"max=500"`
}

type SaveRideRequestBody struct {
	Days []string `json:"days" binding:"omitempty,max=7"`
}

type RebookRequestBody struct {
	Dates        []string `json:"dates" binding:"omitempty,dive,datekey"`
	Seats        int      `json:"seats" binding:"required,min=1"`
	ContactEmail string   `json:"contact_email" binding:"required,email"`
}

type ProposeEditRequestBody struct {
	Pickup string   `json:"pickup" binding:"max=255"`
	Time   string   `json:"time" binding:"omitempty,commutetime"`
	Cost   *float64 `json:"cost" binding:"omitempty,gt=0"`
}

type RideQueryFilters struct {
	Origin      string `form:"origin"`
	Destination string `form:"destination"`
	DriverID    uint   `form:"driver_id"`
}

type ManifestQueryFilters struct {
	Date string `form:"date" binding:"omitempty,datekey"`
}

type EarningsQueryFilters struct {
	Weeks int `form:"weeks" binding:"omitempty,min=1,max=52"`
}

type UpdateSettingRequestBody struct {
	Value *float64 `json:"value" binding:"required,gte=0,lte=1"`
}

type Handler func(payload string)
