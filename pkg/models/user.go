package models

// Role values mirror the backend's role claim verbatim.
type Role string

const (
	RoleCustomer Role = "ROLE_CUSTOMER"
	RoleDriver   Role = "ROLE_DRIVER"
	RoleAdmin    Role = "ROLE_ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// DashboardPath is where a user lands right after login.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleDriver:
		return "/driver-dashboard"
	default:
		return "/home"
	}
}

// Session is the client-side record of who is logged in. The zero value is
// the anonymous snapshot.
type Session struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"userId,omitempty"`
	Role   Role   `json:"role,omitempty"`
}

func (s Session) Anonymous() bool {
	return s.Token == ""
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the backend's /auth/login reply.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type SignupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	NIC      string `json:"nic" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

// ToCustomer maps the signup form onto the backend Customer entity.
func (r SignupRequest) ToCustomer() Customer {
	return Customer{
		CustomerName:    r.FullName,
		CustomerAddress: r.Address,
		CustomerNIC:     r.NIC,
		CustomerPhone:   r.Phone,
		Email:           r.Email,
		Password:        r.Password,
	}
}
