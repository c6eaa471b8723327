package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-console/internal/directory"
	"user-console/internal/domain"
)

func seedPages(f fixture) {
	f.dir.pages[1] = domain.UserPage{Page: 1, PerPage: 3, Total: 6, TotalPages: 2, Users: []domain.User{
		user(1, "George", "Bluth"), user(2, "Janet", "Weaver"), user(3, "Emma", "Wong"),
	}}
	f.dir.pages[2] = domain.UserPage{Page: 2, PerPage: 3, Total: 6, TotalPages: 2, Users: []domain.User{
		user(4, "Eve", "Holt"), user(5, "Charles", "Morris"), user(6, "Tracey", "Ramos"),
	}}
	for _, p := range f.dir.pages {
		for _, u := range p.Users {
			f.dir.users[u.ID] = u
		}
	}
}

func ids(users []domain.User) []int64 {
	out := make([]int64, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestList_FetchesOnceAndCaches(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	l, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(l.Users))
	assert.Equal(t, 1, l.Page)
	assert.Equal(t, 2, l.TotalPages)
	assert.False(t, l.HasPrev)
	assert.True(t, l.HasNext)

	_, err = svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.dir.listCalls())
}

func TestList_PagingFetchesNewPage(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	_, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, svc.NextPage("s1"))
	assert.Equal(t, 2, svc.NextPage("s1"))
	l, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5, 6}, ids(l.Users))
	assert.True(t, l.HasPrev)
	assert.False(t, l.HasNext)

	assert.Equal(t, 1, svc.PrevPage("s1"))
	l, err = svc.List(ctx, "s1", ListOptions{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, l.Page)
	assert.Equal(t, []int{1, 2, 2}, f.dir.listed)
}

func TestList_OutOfRangePageServesClampedPage(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	f.dir.pages[99] = domain.UserPage{Page: 99, PerPage: 3, Total: 6, TotalPages: 2}
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})

	l, err := svc.List(context.Background(), "s1", ListOptions{Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 2, l.Page)
	assert.Equal(t, 2, l.TotalPages)
	assert.Equal(t, []int64{4, 5, 6}, ids(l.Users))
	assert.Equal(t, []int{99, 2}, f.dir.listed)
}

func TestList_FetchErrorSurfacedOnce(t *testing.T) {
	f := newFixture(t)
	f.dir.listErr = &directory.RejectedError{Status: 500, Message: "Failed to fetch users!"}
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	l, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	require.Error(t, l.FetchErr)
	assert.Empty(t, l.Users)

	l, err = svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	assert.NoError(t, l.FetchErr)
	assert.Equal(t, 1, f.dir.listCalls(), "failures are not retried automatically")

	f.dir.listErr = nil
	seedPages(f)
	l, err = svc.List(ctx, "s1", ListOptions{Force: true})
	require.NoError(t, err)
	assert.Len(t, l.Users, 3)
}

func TestSubmitEdit_ShowsWithoutRefetch(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	_, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.SubmitEdit(ctx, "s1", 2, domain.UserFields{FirstName: "Jan", LastName: "Weaver", Email: "jan@x.io"}))

	l, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.dir.listCalls())
	assert.Equal(t, "Jan", l.Users[1].FirstName)
	assert.Equal(t, "jan@x.io", l.Users[1].Email)
	assert.Equal(t, "https://reqres.in/img/faces/2-image.jpg", l.Users[1].Avatar)
	assert.Empty(t, f.dir.updated, "remote edits are off by default")
}

func TestSubmitEdit_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	err := svc.SubmitEdit(ctx, "s1", 0, domain.UserFields{FirstName: "a", LastName: "b", Email: "c"})
	assert.ErrorIs(t, err, ErrInvalidUserID)

	err = svc.SubmitEdit(ctx, "s1", 1, domain.UserFields{FirstName: "a", LastName: " ", Email: "c"})
	assert.ErrorIs(t, err, ErrMissingFields)

	ov, err := f.store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ov.Empty())
}

func TestSubmitEdit_RemoteFailureKeepsLocalEdit(t *testing.T) {
	f := newFixture(t)
	f.dir.updateErr = directory.ErrNetwork
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{RemoteEdits: true})
	ctx := context.Background()

	fields := domain.UserFields{FirstName: "Emma", LastName: "Wong", Email: "emma@x.io"}
	require.NoError(t, svc.SubmitEdit(ctx, "s1", 3, fields))
	assert.Equal(t, fields, f.dir.updated[3])

	ov, err := f.store.Load(ctx, "s1")
	require.NoError(t, err)
	got, ok := ov.Edit(3)
	require.True(t, ok)
	assert.Equal(t, fields, got)
}

func TestEditForm_PrefersOverlay(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	u, err := svc.EditForm(ctx, "s1", 4)
	require.NoError(t, err)
	assert.Equal(t, "Eve", u.FirstName)

	require.NoError(t, svc.SubmitEdit(ctx, "s1", 4, domain.UserFields{FirstName: "Evelyn", LastName: "Holt", Email: "e@h.io"}))
	f.dir.getErr = errors.New("should not be called")

	u, err = svc.EditForm(ctx, "s1", 4)
	require.NoError(t, err)
	assert.Equal(t, "Evelyn", u.FirstName)
	assert.Equal(t, int64(4), u.ID)
}

func TestEditForm_FetchFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})

	_, err := svc.EditForm(context.Background(), "s1", 23)
	require.Error(t, err)
	assert.True(t, directory.IsNotFound(err))

	_, err = svc.EditForm(context.Background(), "s1", -1)
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestDelete_AfterEditDropsEditAndRefetches(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	_, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.SubmitEdit(ctx, "s1", 3, domain.UserFields{FirstName: "X", LastName: "Y", Email: "z@z.z"}))

	require.NoError(t, svc.Delete(ctx, "s1", 3))
	assert.Equal(t, []int64{3}, f.dir.deleted)

	ov, err := f.store.Load(ctx, "s1")
	require.NoError(t, err)
	_, edited := ov.Edit(3)
	assert.False(t, edited)
	assert.Equal(t, []int64{3}, ov.Deleted)

	l, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.dir.listCalls(), "deletion triggers a re-fetch")
	assert.Equal(t, []int64{1, 2}, ids(l.Users))
}

func TestDeletedUserCannotBeLoadedOrEdited(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{RemoteEdits: true})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "s1", 3))

	_, err := svc.EditForm(ctx, "s1", 3)
	assert.ErrorIs(t, err, ErrUserDeleted)

	err = svc.SubmitEdit(ctx, "s1", 3, domain.UserFields{FirstName: "X", LastName: "Y", Email: "z@z.z"})
	assert.ErrorIs(t, err, ErrUserDeleted)
	assert.Empty(t, f.dir.updated, "no remote update for a deleted user")

	ov, err := f.store.Load(ctx, "s1")
	require.NoError(t, err)
	_, edited := ov.Edit(3)
	assert.False(t, edited)

	_, err = svc.EditForm(ctx, "s2", 3)
	assert.NoError(t, err, "other scopes still see the user")
}

func TestDelete_FailureLeavesOverlaysUnchanged(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	f.dir.deleteErr = &directory.RejectedError{Status: 503, Message: "Failed to delete user"}
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	fields := domain.UserFields{FirstName: "X", LastName: "Y", Email: "z@z.z"}
	require.NoError(t, svc.SubmitEdit(ctx, "s1", 3, fields))

	err := svc.Delete(ctx, "s1", 3)
	var rejected *directory.RejectedError
	require.ErrorAs(t, err, &rejected)

	ov, err := f.store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, ov.Deleted)
	got, ok := ov.Edit(3)
	require.True(t, ok)
	assert.Equal(t, fields, got)

	l, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	assert.Contains(t, ids(l.Users), int64(3))
}

func TestReset_RestoresFetchedPage(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	require.NoError(t, svc.SubmitEdit(ctx, "s1", 1, domain.UserFields{FirstName: "A", LastName: "B", Email: "c@d.e"}))
	require.NoError(t, svc.Delete(ctx, "s1", 2))
	require.NoError(t, svc.Reset(ctx, "s1"))

	l, err := svc.List(ctx, "s1", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, f.dir.pages[1].Users, l.Users)
}

func TestScopesDoNotShareOverlays(t *testing.T) {
	f := newFixture(t)
	seedPages(f)
	svc := NewUserService(f.dir, f.store, f.views, f.log, UserServiceOptions{})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "s1", 1))

	l, err := svc.List(ctx, "s2", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(l.Users))
}
