package response

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type User struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"isAdmin"`
}

func (u User) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", u.ID.String()).Str("email", u.Email).Bool("isAdmin", u.IsAdmin)
}

// Login is what a successful sign in hands to the session, and the shape
// stored under the user key.
type Login struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
