package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// Client is a customer account managed by a commercial.
type Client struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	CommercialID *int64 `json:"commercial_id,omitempty"`
}

// Validate checks the fields required to store a client.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: client username cannot be empty", ErrValidation)
	}
	if c.Email != "" {
		if err := validateEmail(c.Email); err != nil {
			return err
		}
	}
	return nil
}

// FullName joins first and last name.
func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}
