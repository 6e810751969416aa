package domain

import (
	"fmt"
	"strings"
)

// Commercial is a sales representative.
type Commercial struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// Validate checks the fields required to store a commercial.
func (c *Commercial) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: commercial username cannot be empty", ErrValidation)
	}
	if c.Email != "" {
		return validateEmail(c.Email)
	}
	return nil
}
