package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlay_MarkDeletedDropsEdit(t *testing.T) {
	ov := NewOverlay()
	ov.ApplyEdit(7, UserFields{FirstName: "Mike"})
	ov.ApplyEdit(3, UserFields{FirstName: "Emma"})

	ov.MarkDeleted(7)

	_, ok := ov.Edit(7)
	assert.False(t, ok)
	_, ok = ov.Edit(3)
	assert.True(t, ok)
	assert.Equal(t, []int64{7}, ov.Deleted)
	assert.True(t, ov.IsDeleted(7))
}

func TestOverlay_MarkDeletedTwiceKeepsOneEntry(t *testing.T) {
	ov := NewOverlay()
	ov.MarkDeleted(2)
	ov.MarkDeleted(2)
	ov.MarkDeleted(5)

	assert.Equal(t, []int64{2, 5}, ov.Deleted)
}

func TestOverlay_ApplyEditOnZeroValue(t *testing.T) {
	var ov Overlay
	ov.ApplyEdit(1, UserFields{Email: "a@b.c"})

	f, ok := ov.Edit(1)
	require.True(t, ok)
	assert.Equal(t, "a@b.c", f.Email)
}

func TestOverlay_ResetAndEmpty(t *testing.T) {
	ov := NewOverlay()
	assert.True(t, ov.Empty())

	ov.ApplyEdit(1, UserFields{FirstName: "x"})
	ov.MarkDeleted(2)
	assert.False(t, ov.Empty())

	ov.Reset()
	assert.True(t, ov.Empty())
	assert.NotNil(t, ov.Edits)
}

func TestOverlay_CloneIsDeep(t *testing.T) {
	ov := NewOverlay()
	ov.ApplyEdit(1, UserFields{FirstName: "x"})
	ov.MarkDeleted(2)

	cp := ov.Clone()
	cp.ApplyEdit(9, UserFields{})
	cp.MarkDeleted(4)

	assert.Len(t, ov.Edits, 1)
	assert.Equal(t, []int64{2}, ov.Deleted)
}
