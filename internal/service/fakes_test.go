package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/sakif/social-platform/internal/apperror"
	"github.com/sakif/social-platform/internal/model"
	"github.com/sakif/social-platform/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory fakes of the repository interfaces. They mirror the
// contract of the SQL backends: NotFound for missing rows, Conflict on a
// duplicate username or email.

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int

	// set to a non-nil error to simulate a database failure
	findErr   error
	createErr error
	loginErr  error
	getErr    error

	// raceOnCreate makes CreateUser report a conflict even though the
	// pre-check found nothing, as when a concurrent insert wins.
	raceOnCreate bool

	findCalls   int
	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if f.raceOnCreate {
		return apperror.Conflict(repository.MsgUserExists)
	}
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return apperror.Conflict(repository.MsgUserExists)
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) FindUserByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			cp := *u
			cp.PasswordHash = ""
			return &cp, nil
		}
	}
	return nil, apperror.NotFound(repository.MsgUserNotFound)
}

func (f *fakeUserRepo) GetUserByLogin(_ context.Context, identifier string) (*model.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	for _, u := range f.users {
		if u.Username == identifier {
			cp := *u
			return &cp, nil
		}
	}
	for _, u := range f.users {
		if u.Email == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound(repository.MsgUserNotFound)
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound(repository.MsgUserNotFound)
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp, nil
}

type fakePostRepo struct {
	posts  map[string]*model.Post
	seq    []string // insertion order
	nextID int

	listErr   error
	getErr    error
	updateErr error
	deleteErr error

	lastList repository.ListOptions
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*model.Post)}
}

func (f *fakePostRepo) CreatePost(_ context.Context, p *model.Post) error {
	f.nextID++
	p.ID = fmt.Sprintf("post-%03d", f.nextID)
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	f.posts[p.ID] = &stored
	f.seq = append(f.seq, p.ID)
	return nil
}

func (f *fakePostRepo) ListPosts(_ context.Context, opts repository.ListOptions) ([]model.Post, int, error) {
	f.lastList = opts
	if f.listErr != nil {
		return nil, 0, f.listErr
	}

	ids := make([]string, 0, len(f.posts))
	for id := range f.posts {
		ids = append(ids, id)
	}
	// IDs are zero-padded and increasing, so reverse order is newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	out := []model.Post{}
	for i := opts.Offset; i >= 0 && i < len(ids) && len(out) < opts.Limit; i++ {
		out = append(out, *f.posts[ids[i]])
	}
	return out, len(ids), nil
}

func (f *fakePostRepo) GetPostByID(_ context.Context, id string) (*model.Post, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound(repository.MsgPostNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakePostRepo) UpdatePost(_ context.Context, p *model.Post) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.posts[p.ID]; !ok {
		return apperror.NotFound(repository.MsgPostNotFound)
	}
	p.UpdatedAt = time.Now().UTC()
	stored := *p
	f.posts[p.ID] = &stored
	return nil
}

func (f *fakePostRepo) DeletePost(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound(repository.MsgPostNotFound)
	}
	delete(f.posts, id)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
