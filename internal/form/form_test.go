package form

import (
	"testing"

	"github.com/cjnlabay/midterm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndSnapshot(t *testing.T) {
	var f Form
	require.NoError(t, f.Set(Fullname, "Ann Lee"))
	require.NoError(t, f.Set(Username, "ann"))
	require.NoError(t, f.Set(Email, "a@b.com"))
	require.NoError(t, f.Set(Password, "pw"))

	assert.Equal(t, Draft{Fullname: "Ann Lee", Username: "ann", Email: "a@b.com", Password: "pw"}, f.Snapshot())
	assert.Equal(t, "ann", f.Get(Username))
}

func TestSet_UnknownField(t *testing.T) {
	var f Form
	assert.Error(t, f.Set(Field("age"), "3"))
	assert.Equal(t, Draft{}, f.Snapshot())
}

func TestLoadFrom_LeavesPasswordEmpty(t *testing.T) {
	var f Form
	require.NoError(t, f.Set(Password, "typed earlier"))

	f.LoadFrom(model.User{ID: "42", Fullname: "Bob", Username: "bob", Email: "bob@x.io"})

	assert.Equal(t, Draft{Fullname: "Bob", Username: "bob", Email: "bob@x.io"}, f.Snapshot())
	id, ok := f.EditingID()
	assert.True(t, ok)
	assert.Equal(t, "42", id)
}

func TestReset(t *testing.T) {
	var f Form
	f.LoadFrom(model.User{ID: "1", Fullname: "X"})
	require.NoError(t, f.Set(Password, "pw"))

	f.Reset()

	assert.Equal(t, Draft{}, f.Snapshot())
	_, ok := f.EditingID()
	assert.False(t, ok)
}

func TestSnapshotIsACopy(t *testing.T) {
	var f Form
	require.NoError(t, f.Set(Email, "a@b.com"))
	snap := f.Snapshot()
	require.NoError(t, f.Set(Email, "changed@b.com"))

	assert.Equal(t, "a@b.com", snap.Email)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("email")
	require.NoError(t, err)
	assert.Equal(t, Email, f)

	_, err = ParseField("Email")
	assert.Error(t, err)
	assert.Len(t, Fields(), 4)
}
