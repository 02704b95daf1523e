package domain

import "time"

// User is a registered person. The engine only reads users.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Mailbox returns the address in "Name <email>" form.
func (u *User) Mailbox() string {
	if u.Name == "" {
		return u.Email
	}
	return u.Name + " <" + u.Email + ">"
}
