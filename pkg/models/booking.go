package models

// TripDraft is the in-progress booking input. Mutated field-by-field while
// the customer fills the wizard, discarded after submission or abandonment.
type TripDraft struct {
	VehicleID      string `json:"vehicleId"`
	PickupDate     string `json:"pickupDate"` // YYYY-MM-DD
	PickupTime     string `json:"pickupTime"` // HH:MM, 24h
	PickupLocation string `json:"pickupLocation"`
	DropLocation   string `json:"dropLocation"`
	DriverRequired bool   `json:"driverRequired"`
}

// FareBreakdown is the pricing shown before submission. Derived only from
// the selected vehicle's hourly rate and the driver flag, never stored.
type FareBreakdown struct {
	BaseFare  float64 `json:"baseFare"`
	Tax       float64 `json:"tax"`
	DriverFee float64 `json:"driverFee"`
	Total     float64 `json:"total"`
}

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// BookingRequest is the submission payload for POST /customer/bookCar.
type BookingRequest struct {
	CustomerID     string        `json:"customerId"`
	CarID          string        `json:"carId"`
	PickupDate     string        `json:"pickupDate"` // ISO datetime
	PickupLocation string        `json:"pickupLocation"`
	DropLocation   string        `json:"dropLocation"`
	Tax            float64       `json:"tax"`
	TotalAmount    float64       `json:"totalAmount"`
	BookingDate    string        `json:"bookingDate"`
	DriverRequired bool          `json:"driverRequired"`
	Status         BookingStatus `json:"status"`
}

// BookingRecord is owned by the backend; the storefront only displays it.
type BookingRecord struct {
	BookingID      string        `json:"bookingId"`
	CustomerID     string        `json:"customerId"`
	CarID          string        `json:"carId"`
	PickupDate     string        `json:"pickupDate"`
	PickupLocation string        `json:"pickupLocation"`
	DropLocation   string        `json:"dropLocation"`
	DriverRequired bool          `json:"driverRequired"`
	TotalAmount    float64       `json:"totalAmount"`
	Status         BookingStatus `json:"status"`
}

type CancelRequest struct {
	Reason string `json:"cancellationReason" validate:"required"`
}
