package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tour_booking/internal/apperror"
	"tour_booking/internal/model"
	"tour_booking/internal/repository"
	"tour_booking/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUsers is an in-memory stand-in for repository.UserRepository covering
// the methods the auth flows touch.
type fakeUsers struct {
	repository.UserRepository

	byEmail        map[string]*model.User
	byID           map[int64]*model.User
	byResetHash    map[string]*model.User
	byRefreshHash  map[string]*model.User
	nextID         int64
	createdEmails  []string
	resetTokenSets []struct {
		id      int64
		hash    *string
		expires *time.Time
	}
	refreshSets []struct {
		id   int64
		hash *string
	}
	passwordUpdates map[int64]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail:         map[string]*model.User{},
		byID:            map[int64]*model.User{},
		byResetHash:     map[string]*model.User{},
		byRefreshHash:   map[string]*model.User{},
		nextID:          1,
		passwordUpdates: map[int64]string{},
	}
}

func (f *fakeUsers) add(user *model.User) *model.User {
	if user.ID == 0 {
		user.ID = f.nextID
		f.nextID++
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user
}

func (f *fakeUsers) Create(_ context.Context, user *model.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	f.add(user)
	f.createdEmails = append(f.createdEmails, user.Email)
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUsers) FindByResetTokenHash(_ context.Context, hash string, _ time.Time) (*model.User, error) {
	return f.byResetHash[hash], nil
}

func (f *fakeUsers) FindByRefreshTokenHash(_ context.Context, hash string) (*model.User, error) {
	return f.byRefreshHash[hash], nil
}

func (f *fakeUsers) SetResetToken(_ context.Context, id int64, hash *string, expires *time.Time) error {
	f.resetTokenSets = append(f.resetTokenSets, struct {
		id      int64
		hash    *string
		expires *time.Time
	}{id, hash, expires})
	if hash != nil {
		f.byResetHash[*hash] = f.byID[id]
	} else {
		for k, u := range f.byResetHash {
			if u.ID == id {
				delete(f.byResetHash, k)
			}
		}
	}
	return nil
}

func (f *fakeUsers) SetRefreshToken(_ context.Context, id int64, hash *string) error {
	f.refreshSets = append(f.refreshSets, struct {
		id   int64
		hash *string
	}{id, hash})
	if hash != nil {
		f.byRefreshHash[*hash] = f.byID[id]
	}
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string, changedAt time.Time) error {
	f.passwordUpdates[id] = hash
	return nil
}

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	failWelcome bool
	failReset   bool
	welcomes    int
	resets      int
	lastURL     string
}

func (m *fakeMailer) SendWelcome(context.Context, string, string) error {
	m.welcomes++
	if m.failWelcome {
		return errors.New("smtp: connection refused")
	}
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _, _, url string) error {
	m.resets++
	m.lastURL = url
	if m.failReset {
		return errors.New("smtp: connection refused")
	}
	return nil
}

func newAuthService(users *fakeUsers, mailer *fakeMailer) AuthService {
	return NewAuthService(users, utils.NewJWTUtil("test-secret", time.Hour), mailer)
}

func signupReq() model.SignupRequest {
	return model.SignupRequest{
		Name:            "Alice Smith",
		Email:           "alice@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	}
}

func TestSignup_PasswordMismatchCreatesNoAccount(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users, &fakeMailer{})

	req := signupReq()
	req.PasswordConfirm = "different"
	_, err := svc.Signup(context.Background(), req)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Empty(t, users.createdEmails)
}

func TestSignup_Success(t *testing.T) {
	users := newFakeUsers()
	mailer := &fakeMailer{}
	svc := newAuthService(users, mailer)

	session, err := svc.Signup(context.Background(), signupReq())

	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, model.RoleUser, session.User.Role)
	assert.NotEqual(t, "password123", session.User.PasswordHash)
	assert.Equal(t, 1, mailer.welcomes)
}

func TestSignup_WelcomeEmailFailureIsBestEffort(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users, &fakeMailer{failWelcome: true})

	session, err := svc.Signup(context.Background(), signupReq())

	require.NoError(t, err)
	assert.NotNil(t, session)
	assert.Len(t, users.createdEmails, 1)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users, &fakeMailer{})

	_, err := svc.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), signupReq())

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	users := newFakeUsers()
	hash, err := utils.HashPassword("correct-password")
	require.NoError(t, err)
	users.add(&model.User{Email: "alice@example.com", PasswordHash: hash, Role: model.RoleUser, Active: true})
	svc := newAuthService(users, &fakeMailer{})

	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", "whatever")
	_, errWrongPw := svc.Login(context.Background(), "alice@example.com", "wrong-password")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())

	var appErr *apperror.Error
	require.ErrorAs(t, errUnknown, &appErr)
	assert.Equal(t, apperror.KindAuth, appErr.Kind)
}

func TestLogin_RotatesRefreshToken(t *testing.T) {
	users := newFakeUsers()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	users.add(&model.User{Email: "alice@example.com", PasswordHash: hash, Role: model.RoleUser, Active: true})
	svc := newAuthService(users, &fakeMailer{})

	first, err := svc.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Len(t, users.refreshSets, 2)
}

func TestRefreshAccessToken(t *testing.T) {
	users := newFakeUsers()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	users.add(&model.User{Email: "alice@example.com", PasswordHash: hash, Role: model.RoleUser, Active: true})
	svc := newAuthService(users, &fakeMailer{})

	session, err := svc.Login(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)

	token, err := svc.RefreshAccessToken(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.RefreshAccessToken(context.Background(), "bogus")
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindAuth, appErr.Kind)
}

func TestForgotPassword_MailFailureClearsResetFields(t *testing.T) {
	users := newFakeUsers()
	users.add(&model.User{Email: "alice@example.com", Role: model.RoleUser, Active: true})
	svc := newAuthService(users, &fakeMailer{failReset: true})

	err := svc.ForgotPassword(context.Background(), "alice@example.com", "https://example.com/resetPassword")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindDelivery, appErr.Kind)

	// Token was set, then cleared after the delivery failure
	require.Len(t, users.resetTokenSets, 2)
	assert.NotNil(t, users.resetTokenSets[0].hash)
	assert.Nil(t, users.resetTokenSets[1].hash)
	assert.Empty(t, users.byResetHash)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	svc := newAuthService(newFakeUsers(), &fakeMailer{})

	err := svc.ForgotPassword(context.Background(), "nobody@example.com", "https://example.com/resetPassword")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc := newAuthService(newFakeUsers(), &fakeMailer{})

	_, err := svc.ResetPassword(context.Background(), "bogus-token", "newpassword1", "newpassword1")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "token invalid or expired", appErr.Message)
}

func TestResetPassword_ValidTokenUpdatesAndClears(t *testing.T) {
	users := newFakeUsers()
	mailer := &fakeMailer{}
	user := users.add(&model.User{Email: "alice@example.com", Role: model.RoleUser, Active: true})
	svc := newAuthService(users, mailer)

	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com", "https://example.com/resetPassword"))

	// The mailed URL ends with the plaintext token
	token := mailer.lastURL[len("https://example.com/resetPassword/"):]

	session, err := svc.ResetPassword(context.Background(), token, "newpassword1", "newpassword1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.True(t, utils.CheckPasswordHash("newpassword1", users.passwordUpdates[user.ID]))
	assert.Empty(t, users.byResetHash)
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	users := newFakeUsers()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	user := users.add(&model.User{Email: "alice@example.com", PasswordHash: hash, Role: model.RoleUser, Active: true})
	svc := newAuthService(users, &fakeMailer{})

	_, err = svc.UpdatePassword(context.Background(), user, "not-my-password", "newpassword1", "newpassword1")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindAuth, appErr.Kind)
	assert.Equal(t, "current password incorrect", appErr.Message)
}

func TestUpdatePassword_Success(t *testing.T) {
	users := newFakeUsers()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	user := users.add(&model.User{Email: "alice@example.com", PasswordHash: hash, Role: model.RoleUser, Active: true})
	svc := newAuthService(users, &fakeMailer{})

	session, err := svc.UpdatePassword(context.Background(), user, "password123", "newpassword1", "newpassword1")

	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	require.NotNil(t, user.PasswordChangedAt)
	assert.True(t, user.PasswordChangedAt.Before(time.Now()))
}
