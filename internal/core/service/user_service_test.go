package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/delcom/travel-log/internal/core/authctx"
	"github.com/delcom/travel-log/internal/core/domain"
)

type stubUserRepo struct {
	users   map[string]*domain.User
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

type stubTokenRepo struct {
	rows          map[string]*domain.AuthToken
	saveErr       error
	saveNil       bool
	deletes       int
	deleteByUsers int
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{rows: make(map[string]*domain.AuthToken)}
}

func tokenKey(userID, token string) string { return userID + "|" + token }

func (r *stubTokenRepo) FindUserToken(_ context.Context, userID, token string) (*domain.AuthToken, error) {
	row, ok := r.rows[tokenKey(userID, token)]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *stubTokenRepo) Save(_ context.Context, token *domain.AuthToken) (*domain.AuthToken, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	if r.saveNil {
		return nil, nil
	}
	clone := *token
	r.rows[tokenKey(token.UserID, token.Token)] = &clone
	return token, nil
}

func (r *stubTokenRepo) Delete(_ context.Context, userID, token string) error {
	r.deletes++
	delete(r.rows, tokenKey(userID, token))
	return nil
}

func (r *stubTokenRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.deleteByUsers++
	for k, row := range r.rows {
		if row.UserID == userID {
			delete(r.rows, k)
		}
	}
	return nil
}

// stubCodec issues "tok-<user>-<n>" tokens. A fixed value makes every login
// reuse the same token string.
type stubCodec struct {
	n     int
	fixed string
}

func (c *stubCodec) Generate(user *domain.User) (string, error) {
	if c.fixed != "" {
		return c.fixed, nil
	}
	c.n++
	return fmt.Sprintf("tok-%s-%d", user.ID, c.n), nil
}

func (c *stubCodec) Validate(token string, _ bool) bool {
	return strings.HasPrefix(token, "tok-")
}

func (c *stubCodec) ExtractUserID(token string) (string, bool) {
	rest, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return "", false
	}
	i := strings.LastIndex(rest, "-")
	if i <= 0 {
		return "", false
	}
	return rest[:i], true
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Matches(hash, password string) bool { return hash == "hashed:"+password }

type userFixture struct {
	svc    *UserService
	users  *stubUserRepo
	tokens *stubTokenRepo
	codec  *stubCodec
}

func newUserFixture() *userFixture {
	f := &userFixture{users: newStubUserRepo(), tokens: newStubTokenRepo(), codec: &stubCodec{}}
	f.svc = NewUserService(f.users, f.tokens, f.codec, plainHasher{}, zerolog.Nop())
	return f
}

// sessionCtx returns the context the auth middleware would hand a handler.
func sessionCtx(user *domain.User, token string) context.Context {
	return authctx.WithSession(context.Background(), authctx.Session{User: user, Token: token})
}

func TestUserService_Register_Success(t *testing.T) {
	f := newUserFixture()

	user, err := f.svc.Register(context.Background(), "  Ann ", " Ann@X.com ", "pw1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Name != "Ann" || user.Email != "ann@x.com" {
		t.Fatalf("fields not normalized: %+v", user)
	}
	if user.PasswordHash == "pw1" || !(plainHasher{}).Matches(user.PasswordHash, "pw1") {
		t.Fatalf("expected password to be hashed, got %q", user.PasswordHash)
	}
	if user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Fatalf("timestamps not stamped: %+v", user)
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	f := newUserFixture()

	cases := [][3]string{
		{"", "a@x.com", "pw"},
		{"Ann", "  ", "pw"},
		{"Ann", "a@x.com", ""},
	}
	for _, c := range cases {
		if _, err := f.svc.Register(context.Background(), c[0], c[1], c[2]); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%v: expected validation error, got %v", c, err)
		}
	}
	if len(f.users.users) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	f := newUserFixture()

	if _, err := f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := f.svc.Register(context.Background(), "Someone Else", "ANN@x.com", "other")
	if !errors.Is(err, domain.ErrEmailTaken) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_Register_StorageError(t *testing.T) {
	f := newUserFixture()
	f.users.findErr = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")
	if err == nil || errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

func TestUserService_Login_Success(t *testing.T) {
	f := newUserFixture()
	registered, _ := f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")

	token, user, err := f.svc.Login(context.Background(), "ANN@x.com", "pw1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || user.ID != registered.ID {
		t.Fatalf("unexpected login result: %q %+v", token, user)
	}
	if _, err := f.tokens.FindUserToken(context.Background(), user.ID, token); err != nil {
		t.Fatalf("token must be persisted: %v", err)
	}
	if f.tokens.deletes != 0 || f.tokens.deleteByUsers != 0 {
		t.Fatalf("fresh token must not trigger deletes")
	}
}

func TestUserService_Login_KeepsOtherSessions(t *testing.T) {
	f := newUserFixture()
	_, _ = f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")

	first, user, _ := f.svc.Login(context.Background(), "ann@x.com", "pw1")
	second, _, _ := f.svc.Login(context.Background(), "ann@x.com", "pw1")

	for _, tok := range []string{first, second} {
		if _, err := f.tokens.FindUserToken(context.Background(), user.ID, tok); err != nil {
			t.Fatalf("session %q should still exist: %v", tok, err)
		}
	}
}

func TestUserService_Login_ReplacesStaleRowForSameToken(t *testing.T) {
	f := newUserFixture()
	f.codec.fixed = "tok-fixed-1"
	_, _ = f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")

	if _, _, err := f.svc.Login(context.Background(), "ann@x.com", "pw1"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), "ann@x.com", "pw1"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if f.tokens.deletes != 1 {
		t.Fatalf("expected one stale row delete, got %d", f.tokens.deletes)
	}
	if f.tokens.deleteByUsers != 0 {
		t.Fatalf("login must not revoke every session")
	}
	if len(f.tokens.rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(f.tokens.rows))
	}
}

func TestUserService_Login_InvalidCredentials(t *testing.T) {
	f := newUserFixture()
	_, _ = f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")

	if _, _, err := f.svc.Login(context.Background(), "ann@x.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), "ghost@x.com", "pw1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), "", "pw1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.tokens.rows) != 0 {
		t.Fatalf("failed logins must not store tokens")
	}
}

func TestUserService_Login_TokenNotPersisted(t *testing.T) {
	for name, breakStore := range map[string]func(*stubTokenRepo){
		"nil row": func(r *stubTokenRepo) { r.saveNil = true },
		"error":   func(r *stubTokenRepo) { r.saveErr = errors.New("disk full") },
	} {
		t.Run(name, func(t *testing.T) {
			f := newUserFixture()
			_, _ = f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")
			breakStore(f.tokens)

			token, user, err := f.svc.Login(context.Background(), "ann@x.com", "pw1")
			if !errors.Is(err, domain.ErrTokenNotPersisted) || !errors.Is(err, domain.ErrInternal) {
				t.Fatalf("expected ErrTokenNotPersisted, got %v", err)
			}
			if token != "" || user != nil {
				t.Fatalf("caller must not receive an unrecorded token")
			}
		})
	}
}

func TestUserService_CurrentUser(t *testing.T) {
	f := newUserFixture()

	if _, err := f.svc.CurrentUser(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	ann := &domain.User{ID: "u1", Name: "Ann"}
	got, err := f.svc.CurrentUser(sessionCtx(ann, "tok-u1-1"))
	if err != nil || got.Name != "Ann" {
		t.Fatalf("unexpected result: %+v %v", got, err)
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newUserFixture()
	ann, _ := f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")
	ctx := sessionCtx(ann, "tok")

	updated, err := f.svc.UpdateProfile(ctx, " Annie ", "ANNIE@x.com")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Annie" || updated.Email != "annie@x.com" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
	if updated.UpdatedAt.Before(ann.UpdatedAt) {
		t.Fatalf("updated_at went backwards")
	}
	stored, _ := f.users.FindByID(context.Background(), ann.ID)
	if stored.Email != "annie@x.com" {
		t.Fatalf("update not persisted: %+v", stored)
	}
}

func TestUserService_UpdateProfile_Errors(t *testing.T) {
	f := newUserFixture()
	ann, _ := f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")
	_, _ = f.svc.Register(context.Background(), "Bob", "bob@x.com", "pw2")

	if _, err := f.svc.UpdateProfile(context.Background(), "Ann", "ann@x.com"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := f.svc.UpdateProfile(sessionCtx(ann, "tok"), "", "ann@x.com"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.UpdateProfile(sessionCtx(ann, "tok"), "Ann", "bob@x.com"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	ghost := &domain.User{ID: "vanished"}
	if _, err := f.svc.UpdateProfile(sessionCtx(ghost, "tok"), "Ghost", "ghost@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_ChangePassword_RevokesSessions(t *testing.T) {
	f := newUserFixture()
	_, _ = f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")
	first, ann, _ := f.svc.Login(context.Background(), "ann@x.com", "pw1")
	second, _, _ := f.svc.Login(context.Background(), "ann@x.com", "pw1")

	if err := f.svc.ChangePassword(sessionCtx(ann, first), "pw1", "pw2"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	for _, tok := range []string{first, second} {
		if _, err := f.tokens.FindUserToken(context.Background(), ann.ID, tok); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Fatalf("session %q should be revoked, got %v", tok, err)
		}
	}
	if _, _, err := f.svc.Login(context.Background(), "ann@x.com", "pw1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, _, err := f.svc.Login(context.Background(), "ann@x.com", "pw2"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestUserService_ChangePassword_Errors(t *testing.T) {
	f := newUserFixture()
	ann, _ := f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")
	ctx := sessionCtx(ann, "tok")

	if err := f.svc.ChangePassword(context.Background(), "pw1", "pw2"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, "", "pw2"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for old password, got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, "pw1", " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for new password, got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, "nope", "pw2"); !errors.Is(err, domain.ErrWrongPassword) || !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	ghost := &domain.User{ID: "vanished", PasswordHash: "hashed:pw1"}
	if err := f.svc.ChangePassword(sessionCtx(ghost, "tok"), "pw1", "pw2"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if f.tokens.deleteByUsers != 0 {
		t.Fatalf("failed changes must not revoke sessions")
	}
}

func TestUserService_Logout(t *testing.T) {
	f := newUserFixture()
	_, _ = f.svc.Register(context.Background(), "Ann", "ann@x.com", "pw1")
	first, ann, _ := f.svc.Login(context.Background(), "ann@x.com", "pw1")
	second, _, _ := f.svc.Login(context.Background(), "ann@x.com", "pw1")

	if err := f.svc.Logout(sessionCtx(ann, first)); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := f.tokens.FindUserToken(context.Background(), ann.ID, first); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("logged out session should be gone")
	}
	if _, err := f.tokens.FindUserToken(context.Background(), ann.ID, second); err != nil {
		t.Fatalf("other session must survive logout: %v", err)
	}
	if err := f.svc.Logout(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
