package wire

import (
	"github.com/stockfolio/ledger/internal/app/domain/user"
)

// User is the wire shape of an application user.
type User struct {
	ID      int64  `json:"userId"`
	Name    string `json:"name"`
	Auth0ID string `json:"auth0Id"`
}

// EncodeUser converts a storage user to its wire shape.
func EncodeUser(u user.User, err error) (User, error) {
	if err != nil {
		return User{}, notFound("user", err)
	}
	return User{
		ID:      u.ID,
		Name:    u.Name,
		Auth0ID: u.Auth0ID,
	}, nil
}
