package messaging

import (
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
)

// Identity is the caller as resolved by the auth layer. The sender of a
// message is always taken from here, never from a request payload.
type Identity struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name,omitempty"`
	Role  model.Role `json:"role"`
}

func (i Identity) validate() error {
	if i.ID == "" || !i.Role.Valid() {
		return ErrUnauthorized
	}
	return nil
}
