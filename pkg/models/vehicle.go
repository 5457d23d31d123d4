package models

const (
	TypeEconomy = "Economy"
	TypeLuxury  = "Luxury"
	TypeVan     = "Van"
)

// DefaultVehicleImage stands in when the backend has no photo for a car.
const DefaultVehicleImage = "/api/placeholder/300/200"

// Vehicle is the normalized catalog entity the storefront works with.
// It is read-only: sourced from the backend, never mutated, only redisplayed.
type Vehicle struct {
	ID         string  `json:"id"`
	Brand      string  `json:"brand"`
	Model      string  `json:"model"`
	Type       string  `json:"type"`
	Seats      int     `json:"seats"`
	HourlyRate float64 `json:"hourlyRate"`
	Available  bool    `json:"available"`
	ImageURL   string  `json:"image"`
}

// CarDTO is the backend's wire shape for a car. Fields are optional on the
// wire; ToVehicle applies the defaulting rules in one place so nothing else
// has to know about them.
type CarDTO struct {
	CarID     string `json:"carId"`
	CarBrand  string `json:"carBrand"`
	CarModel  string `json:"carModel"`
	CarType   string `json:"carType,omitempty"`
	Capacity  int    `json:"capacity"`
	CarImgURL string `json:"carImgUrl,omitempty"`
	Available bool   `json:"available"`
}

// HourlyRateFor maps a car type to its hourly rate.
func HourlyRateFor(carType string) float64 {
	switch carType {
	case TypeLuxury:
		return 25
	case TypeVan:
		return 20
	default:
		return 15
	}
}

func (d CarDTO) ToVehicle() Vehicle {
	carType := d.CarType
	if carType == "" {
		carType = TypeEconomy
	}
	img := d.CarImgURL
	if img == "" {
		img = DefaultVehicleImage
	}
	return Vehicle{
		ID:         d.CarID,
		Brand:      d.CarBrand,
		Model:      d.CarModel,
		Type:       carType,
		Seats:      d.Capacity,
		HourlyRate: HourlyRateFor(carType),
		Available:  d.Available,
		ImageURL:   img,
	}
}
