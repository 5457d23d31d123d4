package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"megacity/pkg/models"
)

// WizardStep names the booking flow states explicitly. Transitions only
// happen through the Wizard methods below, which enforce the guards.
type WizardStep string

const (
	StepSelectVehicle WizardStep = "SELECT_VEHICLE"
	StepTripDetails   WizardStep = "TRIP_DETAILS"
	StepConfirmation  WizardStep = "CONFIRMATION"
)

// Draft validation failures. These stay local to the wizard: the handler
// surfaces them inline in the trip details step.
var (
	ErrNoVehicle      = errors.New("select a vehicle first")
	ErrMissingDate    = errors.New("pickup date is required")
	ErrBadSchedule    = errors.New("invalid pickup date or time")
	ErrPastPickupDate = errors.New("pickup date must be today or later")
	ErrMissingPickup  = errors.New("pickup location is required")
	ErrMissingDrop    = errors.New("drop-off location is required")
	ErrWrongStep      = errors.New("not available at this step")
	ErrWizardDone     = errors.New("booking already confirmed")
)

// BookingAPI is the slice of the backend client the wizard needs to submit.
type BookingAPI interface {
	BookCar(ctx context.Context, token string, req models.BookingRequest) (models.BookingRecord, error)
}

// Wizard drives the three-step booking flow. It is a plain JSON value so
// each session's instance survives in the cache between requests.
type Wizard struct {
	Step      WizardStep            `json:"step"`
	Draft     models.TripDraft      `json:"draft"`
	Vehicle   *models.Vehicle       `json:"vehicle,omitempty"`
	Fare      models.FareBreakdown  `json:"fare"`
	Confirmed *models.BookingRecord `json:"confirmed,omitempty"`
}

// NewWizard starts the flow. A preselected vehicle skips straight to trip
// details with the fare already computed; a preserved draft keeps fields
// the customer entered before navigating away.
func NewWizard(preselected *models.Vehicle, preserved *models.TripDraft) *Wizard {
	w := &Wizard{Step: StepSelectVehicle}
	if preserved != nil {
		w.Draft = *preserved
	}
	if w.Draft.PickupTime == "" {
		w.Draft.PickupTime = "12:00"
	}
	if preselected != nil {
		v := *preselected
		w.Vehicle = &v
		w.Draft.VehicleID = v.ID
		w.Fare = ComputeFare(v, w.Draft.DriverRequired)
		w.Step = StepTripDetails
	}
	return w
}

// SelectVehicle records the choice and recomputes the fare.
func (w *Wizard) SelectVehicle(v models.Vehicle) error {
	if w.Step == StepConfirmation {
		return ErrWizardDone
	}
	w.Vehicle = &v
	w.Draft.VehicleID = v.ID
	w.Fare = ComputeFare(v, w.Draft.DriverRequired)
	return nil
}

// Advance moves from vehicle selection to trip details. Guard: a vehicle
// must be selected.
func (w *Wizard) Advance() error {
	switch w.Step {
	case StepSelectVehicle:
		if w.Vehicle == nil {
			return ErrNoVehicle
		}
		w.Step = StepTripDetails
		return nil
	case StepConfirmation:
		return ErrWizardDone
	default:
		return ErrWrongStep
	}
}

// ChangeVehicle goes back to catalog browsing. The draft is untouched so
// navigating away and back never loses entered input.
func (w *Wizard) ChangeVehicle() error {
	if w.Step != StepTripDetails {
		return ErrWrongStep
	}
	w.Step = StepSelectVehicle
	return nil
}

// TripDetailsForm is the trip details step's input.
type TripDetailsForm struct {
	PickupDate     string `json:"pickupDate"`
	PickupTime     string `json:"pickupTime"`
	PickupLocation string `json:"pickupLocation"`
	DropLocation   string `json:"dropLocation"`
	DriverRequired bool   `json:"driverRequired"`
}

// UpdateDetails applies the form to the draft and recomputes the fare so
// a driver-flag change is reflected immediately.
func (w *Wizard) UpdateDetails(f TripDetailsForm) error {
	if w.Step != StepTripDetails {
		return ErrWrongStep
	}
	w.Draft.PickupDate = f.PickupDate
	w.Draft.PickupTime = f.PickupTime
	w.Draft.PickupLocation = f.PickupLocation
	w.Draft.DropLocation = f.DropLocation
	w.Draft.DriverRequired = f.DriverRequired
	if w.Draft.PickupTime == "" {
		w.Draft.PickupTime = "12:00"
	}
	if w.Vehicle != nil {
		w.Fare = ComputeFare(*w.Vehicle, w.Draft.DriverRequired)
	}
	return nil
}

// validate checks the draft against the submission guards.
func (w *Wizard) validate(now time.Time) error {
	if w.Vehicle == nil || w.Draft.VehicleID == "" {
		return ErrNoVehicle
	}
	if w.Draft.PickupDate == "" {
		return ErrMissingDate
	}
	if _, err := time.Parse("2006-01-02T15:04", w.Draft.PickupDate+"T"+w.Draft.PickupTime); err != nil {
		return ErrBadSchedule
	}
	if w.Draft.PickupDate < now.Format("2006-01-02") {
		return ErrPastPickupDate
	}
	if strings.TrimSpace(w.Draft.PickupLocation) == "" {
		return ErrMissingPickup
	}
	if strings.TrimSpace(w.Draft.DropLocation) == "" {
		return ErrMissingDrop
	}
	return nil
}

// Submit assembles the booking payload around the current draft and fare
// and sends it. Success is the only transition into Confirmation; any
// failure leaves the wizard in TripDetails with the draft intact so the
// customer can retry.
func (w *Wizard) Submit(ctx context.Context, api BookingAPI, sess models.Session) (models.BookingRecord, error) {
	if w.Step == StepConfirmation {
		return models.BookingRecord{}, ErrWizardDone
	}
	if w.Step != StepTripDetails {
		return models.BookingRecord{}, ErrWrongStep
	}

	now := time.Now()
	if err := w.validate(now); err != nil {
		return models.BookingRecord{}, err
	}

	pickup, _ := time.Parse("2006-01-02T15:04", w.Draft.PickupDate+"T"+w.Draft.PickupTime)
	req := models.BookingRequest{
		CustomerID:     sess.UserID,
		CarID:          w.Draft.VehicleID,
		PickupDate:     pickup.UTC().Format(time.RFC3339),
		PickupLocation: w.Draft.PickupLocation,
		DropLocation:   w.Draft.DropLocation,
		Tax:            w.Fare.Tax,
		TotalAmount:    w.Fare.Total,
		BookingDate:    now.UTC().Format(time.RFC3339),
		DriverRequired: w.Draft.DriverRequired,
		Status:         models.StatusPending,
	}

	rec, err := api.BookCar(ctx, sess.Token, req)
	if err != nil {
		return models.BookingRecord{}, err
	}

	w.Confirmed = &rec
	w.Step = StepConfirmation
	return rec, nil
}
