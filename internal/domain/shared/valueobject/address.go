package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address captured on clients, projects and the
// contractor profile. Zero value is an empty address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
}

// NewAddress trims and validates the required parts of an address
func NewAddress(street, city, state, postalCode string) (Address, error) {
	a := Address{
		Street:     strings.TrimSpace(street),
		City:       strings.TrimSpace(city),
		State:      strings.TrimSpace(state),
		PostalCode: strings.TrimSpace(postalCode),
		Country:    "US",
	}
	if a.Street == "" {
		return Address{}, fmt.Errorf("street cannot be empty")
	}
	if len(a.Street) > 200 {
		return Address{}, fmt.Errorf("street cannot exceed 200 characters")
	}
	if a.City == "" {
		return Address{}, fmt.Errorf("city cannot be empty")
	}
	return a, nil
}

// IsEmpty returns true when no part of the address is set
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.PostalCode == ""
}

// OneLine renders the address on a single line, skipping blank parts
func (a Address) OneLine() string {
	parts := make([]string, 0, 3)
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	region := strings.TrimSpace(a.State + " " + a.PostalCode)
	if region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

func (a Address) String() string {
	return a.OneLine()
}

// Value implements driver.Valuer; addresses are stored as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}
