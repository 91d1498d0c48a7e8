package form

import (
	"fmt"

	"github.com/cjnlabay/midterm/internal/model"
)

// Field names a form input
type Field string

const (
	Fullname Field = "fullname"
	Username Field = "username"
	Email    Field = "email"
	Password Field = "password"
)

// Fields lists the inputs in the order they are shown
func Fields() []Field {
	return []Field{Fullname, Username, Email, Password}
}

// ParseField maps a name to a Field
func ParseField(name string) (Field, error) {
	for _, f := range Fields() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown form field %q", name)
}

// Draft is an unsaved set of record fields
type Draft struct {
	Fullname string
	Username string
	Email    string
	Password string
}

// Form holds the draft being edited and, when editing, the target record id.
// It does no validation; that happens when the draft is submitted.
type Form struct {
	draft     Draft
	editingID string
}

// Set updates one field
func (f *Form) Set(field Field, value string) error {
	switch field {
	case Fullname:
		f.draft.Fullname = value
	case Username:
		f.draft.Username = value
	case Email:
		f.draft.Email = value
	case Password:
		f.draft.Password = value
	default:
		return fmt.Errorf("unknown form field %q", field)
	}
	return nil
}

// Get reads one field
func (f *Form) Get(field Field) string {
	switch field {
	case Fullname:
		return f.draft.Fullname
	case Username:
		return f.draft.Username
	case Email:
		return f.draft.Email
	case Password:
		return f.draft.Password
	}
	return ""
}

// Reset empties every field and forgets the record being edited
func (f *Form) Reset() {
	f.draft = Draft{}
	f.editingID = ""
}

// LoadFrom starts editing u. The password stays empty: it is write-only.
func (f *Form) LoadFrom(u model.User) {
	f.draft = Draft{
		Fullname: u.Fullname,
		Username: u.Username,
		Email:    u.Email,
	}
	f.editingID = u.ID
}

// Snapshot returns a copy of the current draft
func (f *Form) Snapshot() Draft {
	return f.draft
}

// EditingID returns the id of the record loaded with LoadFrom
func (f *Form) EditingID() (string, bool) {
	return f.editingID, f.editingID != ""
}
