package models

// Customer mirrors the backend customer entity.
type Customer struct {
	CustomerID      string `json:"customerId,omitempty"`
	CustomerName    string `json:"customerName"`
	CustomerAddress string `json:"customerAddress"`
	CustomerNIC     string `json:"customerNIC"`
	CustomerPhone   string `json:"customerPhone"`
	Email           string `json:"email"`
	Password        string `json:"password,omitempty"`
}
