package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/inbound"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

// uuidRetries bounds the username collision retry loop. A collision is
// vanishingly unlikely; more than a couple in a row means something is
// broken.
const uuidRetries = 5

type credentialService struct {
	users       outbound.UserRepository
	slots       outbound.SlotRepository
	hasher      outbound.PasswordHasher
	logger      outbound.Logger
	gracePeriod time.Duration
	passwordLen int
}

func NewCredentialService(
	users outbound.UserRepository,
	slots outbound.SlotRepository,
	hasher outbound.PasswordHasher,
	logger outbound.Logger,
	defaultGracePeriod time.Duration,
	generatedPasswordLength int,
) inbound.CredentialService {
	return &credentialService{
		users:       users,
		slots:       slots,
		hasher:      hasher,
		logger:      logger,
		gracePeriod: defaultGracePeriod,
		passwordLen: generatedPasswordLength,
	}
}

func (s *credentialService) AddUser(ctx context.Context, username, password string, opts model.UserOptions) (string, error) {
	if username == "" {
		return "", fmt.Errorf("%w: empty", model.ErrInvalidUsername)
	}

	generated := ""
	if password == "" {
		var err error
		generated, err = s.hasher.GeneratePassword(s.passwordLen)
		if err != nil {
			return "", err
		}
		password = generated
	}

	salt := s.hasher.GenerateSalt()
	hash := s.hasher.HashPassword(password, salt)
	now := time.Now().UTC()

	var deadline *time.Time
	if opts.ForcePasswordChange {
		grace := opts.GracePeriod
		if grace <= 0 {
			grace = s.gracePeriod
		}
		d := now.Add(grace)
		deadline = &d
	}

	_, err := s.users.Update(ctx, func(db *model.UserDatabase) error {
		if _, exists := db.Users[username]; exists {
			return fmt.Errorf("%w: %s", model.ErrDuplicateUser, username)
		}
		db.Users[username] = &model.User{
			Username:             username,
			PasswordHash:         hash,
			Salt:                 salt,
			Admin:                opts.Admin,
			LoginDisabled:        opts.LoginDisabled,
			ForcePasswordChange:  opts.ForcePasswordChange,
			PasswordChangeByDate: deadline,
			CreatedAt:            now,
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.slots.ProvisionUser(username); err != nil {
		s.logger.Error("User created but slot provisioning failed", "username", username, "error", err)
		return generated, err
	}

	s.logger.Info("User created", "username", username, "admin", opts.Admin)
	return generated, nil
}

func (s *credentialService) GenerateUUIDUser(ctx context.Context, password string, opts model.UserOptions) (string, string, error) {
	for attempt := 0; attempt < uuidRetries; attempt++ {
		username := uuid.NewString()
		generated, err := s.AddUser(ctx, username, password, opts)
		if errors.Is(err, model.ErrDuplicateUser) {
			s.logger.Warn("UUID username collision, retrying", "username", username)
			continue
		}
		if err != nil {
			return "", "", err
		}
		return username, generated, nil
	}
	return "", "", fmt.Errorf("gave up after %d UUID username collisions", uuidRetries)
}

func (s *credentialService) UpdateUser(ctx context.Context, username string, upd model.UserUpdate) error {
	now := time.Now().UTC()

	_, err := s.users.Update(ctx, func(db *model.UserDatabase) error {
		user, exists := db.Users[username]
		if !exists {
			return fmt.Errorf("%w: %s", model.ErrUnknownUser, username)
		}

		if upd.Password != nil {
			salt := s.hasher.GenerateSalt()
			user.Salt = salt
			user.PasswordHash = s.hasher.HashPassword(*upd.Password, salt)
		}
		if upd.Admin != nil {
			user.Admin = *upd.Admin
		}
		if upd.LoginDisabled != nil {
			user.LoginDisabled = *upd.LoginDisabled
		}
		if upd.ForcePasswordChange != nil {
			user.ForcePasswordChange = *upd.ForcePasswordChange
			if *upd.ForcePasswordChange {
				grace := s.gracePeriod
				if upd.GracePeriod != nil && *upd.GracePeriod > 0 {
					grace = *upd.GracePeriod
				}
				d := now.Add(grace)
				user.PasswordChangeByDate = &d
			} else {
				user.PasswordChangeByDate = nil
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("User updated", "username", username)
	return nil
}

func (s *credentialService) DeleteUser(ctx context.Context, username string) error {
	_, err := s.users.Update(ctx, func(db *model.UserDatabase) error {
		if _, exists := db.Users[username]; !exists {
			return fmt.Errorf("%w: %s", model.ErrUnknownUser, username)
		}
		delete(db.Users, username)
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.slots.RemoveUser(username); err != nil {
		s.logger.Error("User deleted but slot tree removal failed", "username", username, "error", err)
		return err
	}

	s.logger.Info("User deleted", "username", username)
	return nil
}

// Authenticate evaluates a login attempt. Unknown user and wrong
// password produce the same outcome, so usernames cannot be enumerated;
// a hash is computed either way to keep the timing comparable.
func (s *credentialService) Authenticate(ctx context.Context, username, password string, now time.Time) (model.AuthOutcome, *model.User, error) {
	db, err := s.users.Load()
	if err != nil {
		return model.AuthInvalidCredentials, nil, err
	}

	user, exists := db.Users[username]
	if !exists {
		var salt [16]byte
		s.hasher.HashPassword(password, salt)
		return model.AuthInvalidCredentials, nil, nil
	}

	if !s.hasher.VerifyPassword(password, user.PasswordHash, user.Salt) {
		return model.AuthInvalidCredentials, nil, nil
	}

	if user.LoginDisabled {
		return model.AuthLoginDisabled, nil, nil
	}

	outcome := model.AuthOK
	if user.ForcePasswordChange {
		if user.PasswordChangeByDate != nil && now.After(*user.PasswordChangeByDate) {
			return model.AuthGraceExpired, nil, nil
		}
		outcome = model.AuthMustChangePassword
	}

	s.recordLogin(ctx, username, now)
	return outcome, user, nil
}

// recordLogin is best effort: a lock timeout here must not fail an
// otherwise valid login.
func (s *credentialService) recordLogin(ctx context.Context, username string, now time.Time) {
	_, err := s.users.Update(ctx, func(db *model.UserDatabase) error {
		if user, exists := db.Users[username]; exists {
			user.LastLogin = now
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to record last login", "username", username, "error", err)
	}
}

func (s *credentialService) ChangePassword(ctx context.Context, username, newPassword string) error {
	_, err := s.users.Update(ctx, func(db *model.UserDatabase) error {
		user, exists := db.Users[username]
		if !exists {
			return fmt.Errorf("%w: %s", model.ErrUnknownUser, username)
		}
		salt := s.hasher.GenerateSalt()
		user.Salt = salt
		user.PasswordHash = s.hasher.HashPassword(newPassword, salt)
		user.ForcePasswordChange = false
		user.PasswordChangeByDate = nil
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Password changed", "username", username)
	return nil
}

func (s *credentialService) GetUser(username string) (*model.User, error) {
	db, err := s.users.Load()
	if err != nil {
		return nil, err
	}
	user, exists := db.Users[username]
	if !exists {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownUser, username)
	}
	return user, nil
}

func (s *credentialService) ListUsers() ([]*model.User, error) {
	db, err := s.users.Load()
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(db.Users))
	for _, user := range db.Users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}
