package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/inbound"
)

func newTestCredentialService(users *fakeUserRepo, slots *fakeSlotRepo) inbound.CredentialService {
	return NewCredentialService(users, slots, fakeHasher{}, &mockLogger{}, 72*time.Hour, 20)
}

func TestCredentialService_AddUser(t *testing.T) {
	users := newFakeUserRepo()
	slots := newFakeSlotRepo()
	svc := newTestCredentialService(users, slots)
	ctx := context.Background()

	generated, err := svc.AddUser(ctx, "bob", "hunter2hunter2", model.UserOptions{Admin: true})
	assert.NoError(t, err)
	assert.Empty(t, generated, "no password should be generated when one is supplied")
	assert.Contains(t, slots.provisioned, "bob")

	user, err := svc.GetUser("bob")
	assert.NoError(t, err)
	assert.True(t, user.Admin)
	assert.Equal(t, "hashed(hunter2hunter2)", user.PasswordHash)
	assert.False(t, user.ForcePasswordChange)
	assert.Nil(t, user.PasswordChangeByDate)
}

func TestCredentialService_AddUserGeneratesPasswordOnce(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())

	generated, err := svc.AddUser(context.Background(), "bob", "", model.UserOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "generated-password-0", generated)

	// the plaintext is nowhere in the record
	user, err := svc.GetUser("bob")
	assert.NoError(t, err)
	assert.Equal(t, "hashed(generated-password-0)", user.PasswordHash)
}

func TestCredentialService_AddDuplicateUser(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())
	ctx := context.Background()

	_, err := svc.AddUser(ctx, "bob", "pw", model.UserOptions{})
	assert.NoError(t, err)

	_, err = svc.AddUser(ctx, "bob", "pw", model.UserOptions{})
	assert.ErrorIs(t, err, model.ErrDuplicateUser)
}

func TestCredentialService_ForceChangeSetsDeadline(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())

	before := time.Now().UTC()
	_, err := svc.AddUser(context.Background(), "bob", "pw", model.UserOptions{
		ForcePasswordChange: true,
		GracePeriod:         time.Hour,
	})
	assert.NoError(t, err)

	user, err := svc.GetUser("bob")
	assert.NoError(t, err)
	assert.True(t, user.ForcePasswordChange)
	if assert.NotNil(t, user.PasswordChangeByDate) {
		assert.WithinDuration(t, before.Add(time.Hour), *user.PasswordChangeByDate, time.Minute)
	}
}

func TestCredentialService_GenerateUUIDUser(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())

	username, generated, err := svc.GenerateUUIDUser(context.Background(), "", model.UserOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "generated-password-0", generated)

	_, err = uuid.Parse(username)
	assert.NoError(t, err, "username %q is not a UUID", username)

	_, err = svc.GetUser(username)
	assert.NoError(t, err)
}

func TestCredentialService_Authenticate(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := svc.AddUser(ctx, "bob", "right-password", model.UserOptions{})
	assert.NoError(t, err)

	t.Run("valid login", func(t *testing.T) {
		outcome, user, err := svc.Authenticate(ctx, "bob", "right-password", now)
		assert.NoError(t, err)
		assert.Equal(t, model.AuthOK, outcome)
		assert.NotNil(t, user)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		wrongPw, _, err := svc.Authenticate(ctx, "bob", "wrong", now)
		assert.NoError(t, err)
		unknown, _, err2 := svc.Authenticate(ctx, "nobody", "wrong", now)
		assert.NoError(t, err2)
		assert.Equal(t, model.AuthInvalidCredentials, wrongPw)
		assert.Equal(t, wrongPw, unknown)
	})

	t.Run("valid login records last login", func(t *testing.T) {
		user, err := svc.GetUser("bob")
		assert.NoError(t, err)
		assert.WithinDuration(t, now, user.LastLogin, time.Minute)
	})
}

func TestCredentialService_AuthenticateDisabled(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())
	ctx := context.Background()

	_, err := svc.AddUser(ctx, "bob", "pw", model.UserOptions{LoginDisabled: true})
	assert.NoError(t, err)

	outcome, user, err := svc.Authenticate(ctx, "bob", "pw", time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, model.AuthLoginDisabled, outcome)
	assert.Nil(t, user)
	assert.False(t, outcome.Allowed())
}

func TestCredentialService_GracePeriodScenario(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())
	ctx := context.Background()
	now := time.Now().UTC()

	// UUID user with a 10 second grace period for the forced change
	username, password, err := svc.GenerateUUIDUser(ctx, "", model.UserOptions{
		ForcePasswordChange: true,
		GracePeriod:         10 * time.Second,
	})
	assert.NoError(t, err)

	// within the grace period: allowed in, must change password
	outcome, _, err := svc.Authenticate(ctx, username, password, now)
	assert.NoError(t, err)
	assert.Equal(t, model.AuthMustChangePassword, outcome)
	assert.True(t, outcome.Allowed())

	// 11 seconds later the grace period has expired
	outcome, _, err = svc.Authenticate(ctx, username, password, now.Add(11*time.Second))
	assert.NoError(t, err)
	assert.Equal(t, model.AuthGraceExpired, outcome)

	// changing the password clears the forced change entirely
	assert.NoError(t, svc.ChangePassword(ctx, username, "brand-new-password"))
	outcome, _, err = svc.Authenticate(ctx, username, "brand-new-password", now.Add(time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, model.AuthOK, outcome)
}

func TestCredentialService_UpdateUser(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())
	ctx := context.Background()

	_, err := svc.AddUser(ctx, "bob", "pw", model.UserOptions{})
	assert.NoError(t, err)

	disabled := true
	assert.NoError(t, svc.UpdateUser(ctx, "bob", model.UserUpdate{LoginDisabled: &disabled}))

	user, err := svc.GetUser("bob")
	assert.NoError(t, err)
	assert.True(t, user.LoginDisabled)
	assert.False(t, user.Admin, "untouched fields must survive a partial update")

	newPw := "different"
	assert.NoError(t, svc.UpdateUser(ctx, "bob", model.UserUpdate{Password: &newPw}))
	user, _ = svc.GetUser("bob")
	assert.Equal(t, "hashed(different)", user.PasswordHash)

	err = svc.UpdateUser(ctx, "nobody", model.UserUpdate{LoginDisabled: &disabled})
	assert.ErrorIs(t, err, model.ErrUnknownUser)
}

func TestCredentialService_DeleteUser(t *testing.T) {
	slots := newFakeSlotRepo()
	svc := newTestCredentialService(newFakeUserRepo(), slots)
	ctx := context.Background()

	_, err := svc.AddUser(ctx, "bob", "pw", model.UserOptions{})
	assert.NoError(t, err)

	assert.NoError(t, svc.DeleteUser(ctx, "bob"))
	assert.Contains(t, slots.removed, "bob")

	// deleted users authenticate exactly like users that never existed
	outcome, _, err := svc.Authenticate(ctx, "bob", "pw", time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, model.AuthInvalidCredentials, outcome)

	assert.ErrorIs(t, svc.DeleteUser(ctx, "bob"), model.ErrUnknownUser)
}

func TestCredentialService_ListUsersSorted(t *testing.T) {
	svc := newTestCredentialService(newFakeUserRepo(), newFakeSlotRepo())
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := svc.AddUser(ctx, name, "pw", model.UserOptions{})
		assert.NoError(t, err)
	}

	users, err := svc.ListUsers()
	assert.NoError(t, err)
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}
