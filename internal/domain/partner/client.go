package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Client is a homeowner or business the contractor bills
type Client struct {
	shared.OwnedAggregateRoot
	Name    string
	Email   string
	Phone   string
	Address valueobject.Address
	Notes   string
}

// NewClient creates a new client for an owner
func NewClient(ownerID uuid.UUID, name, email, phone string) (*Client, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError("Owner is required")
	}
	name = strings.TrimSpace(name)
	if err := validateName("Client", name); err != nil {
		return nil, err
	}
	if err := validateContact(phone, email); err != nil {
		return nil, err
	}

	client := &Client{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		Email:              strings.TrimSpace(email),
		Phone:              strings.TrimSpace(phone),
	}
	client.AddDomainEvent(NewClientCreatedEvent(client))
	return client, nil
}

// Update replaces the client's contact details
func (c *Client) Update(name, email, phone, notes string) error {
	name = strings.TrimSpace(name)
	if err := validateName("Client", name); err != nil {
		return err
	}
	if err := validateContact(phone, email); err != nil {
		return err
	}

	c.Name = name
	c.Email = strings.TrimSpace(email)
	c.Phone = strings.TrimSpace(phone)
	c.Notes = notes
	c.Touch(time.Now())

	c.AddDomainEvent(NewClientUpdatedEvent(c))
	return nil
}

// SetAddress sets the client's service address
func (c *Client) SetAddress(address valueobject.Address) {
	c.Address = address
	c.Touch(time.Now())
}

// Snapshot freezes the client's identity for a document
func (c *Client) Snapshot() document.ClientSnapshot {
	return document.ClientSnapshot{
		ClientID: c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
	}
}

// Validation functions

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+\.]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

func validateName(kind, name string) error {
	if name == "" {
		return shared.NewValidationError("%s name cannot be empty", kind)
	}
	if len(name) > 200 {
		return shared.NewValidationError("%s name cannot exceed 200 characters", kind)
	}
	return nil
}

func validateContact(phone, email string) error {
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)
	if phone != "" {
		if len(phone) > 50 {
			return shared.NewValidationError("Phone number cannot exceed 50 characters")
		}
		if !phonePattern.MatchString(phone) {
			return shared.NewValidationError("Invalid phone number format")
		}
	}
	if email != "" {
		if len(email) > 200 {
			return shared.NewValidationError("Email cannot exceed 200 characters")
		}
		if !emailPattern.MatchString(email) {
			return shared.NewValidationError("Invalid email format")
		}
	}
	return nil
}
