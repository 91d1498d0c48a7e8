package model

import (
	"encoding/json"
	"time"
)

// User is a record in the remote user collection.
//
// The backend keys records by "_id"; a plain "id" is accepted when decoding
// so responses from other deployments still line up.
type User struct {
	ID        string    `json:"_id"`
	Fullname  string    `json:"fullname"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// UnmarshalJSON accepts either "_id" or "id" as the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.AltID
	}
	return nil
}

// DisplayName returns the full name, falling back to the username
func (u User) DisplayName() string {
	if u.Fullname != "" {
		return u.Fullname
	}
	return u.Username
}
