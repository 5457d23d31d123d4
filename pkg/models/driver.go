package models

// Driver mirrors the backend driver entity as rendered by the dashboards.
type Driver struct {
	DriverID        string `json:"driverId,omitempty"`
	DriverName      string `json:"driverName"`
	DriverLicenseNo string `json:"driverLicenseNo"`
	DriverPhoneNum  string `json:"driverPhoneNum"`
	Email           string `json:"email,omitempty"`
	Available       bool   `json:"available"`
}

// DriverApplication is the public "drive with us" form.
type DriverApplication struct {
	DriverName      string `json:"driverName" validate:"required"`
	DriverLicenseNo string `json:"driverLicenseNo" validate:"required"`
	DriverPhoneNum  string `json:"driverPhoneNum" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
}

func (a DriverApplication) ToDriver() Driver {
	return Driver{
		DriverName:      a.DriverName,
		DriverLicenseNo: a.DriverLicenseNo,
		DriverPhoneNum:  a.DriverPhoneNum,
		Email:           a.Email,
	}
}
