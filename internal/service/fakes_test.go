package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"user-console/internal/directory"
	"user-console/internal/domain"
	"user-console/internal/listing"
	"user-console/internal/localstore"
	"user-console/internal/repository/memory"
	"user-console/internal/storage"
)

type fakeDirectory struct {
	mu sync.Mutex

	token    string
	loginErr error

	pages   map[int]domain.UserPage
	listErr error
	listed  []int

	users  map[int64]domain.User
	getErr error

	deleteErr error
	deleted   []int64

	updateErr error
	updated   map[int64]domain.UserFields
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		token:   "QpwL5tke4Pnpja7X4",
		pages:   map[int]domain.UserPage{},
		users:   map[int64]domain.User{},
		updated: map[int64]domain.UserFields{},
	}
}

func (f *fakeDirectory) Login(_ context.Context, _, _ string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

func (f *fakeDirectory) ListUsers(_ context.Context, page int) (domain.UserPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, page)
	if f.listErr != nil {
		return domain.UserPage{}, f.listErr
	}
	return f.pages[page], nil
}

func (f *fakeDirectory) GetUser(_ context.Context, id int64) (domain.User, error) {
	if f.getErr != nil {
		return domain.User{}, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, &directory.RejectedError{Status: 404, Message: "Failed to fetch user data"}
	}
	return u, nil
}

func (f *fakeDirectory) DeleteUser(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDirectory) UpdateUser(_ context.Context, id int64, fields domain.UserFields) error {
	f.updated[id] = fields
	return f.updateErr
}

func (f *fakeDirectory) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listed)
}

type fakeObjects struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) PutObject(_ context.Context, bucket, key string, body io.Reader, _ string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

func (f *fakeObjects) GetObject(_ context.Context, _, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (f *fakeObjects) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeObjects) DeletePrefix(_ context.Context, _, prefix string) error {
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			delete(f.objects, key)
		}
	}
	return nil
}

type fixture struct {
	dir   *fakeDirectory
	store *localstore.Store
	views *listing.Registry
	log   *logrus.Logger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return fixture{
		dir:   newFakeDirectory(),
		store: localstore.New(memory.NewKVRepository(), log),
		views: listing.NewRegistry(),
		log:   log,
	}
}

func user(id int64, first, last string) domain.User {
	return domain.User{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(first) + "." + strings.ToLower(last) + "@reqres.in",
		Avatar:    fmt.Sprintf("https://reqres.in/img/faces/%d-image.jpg", id),
	}
}
