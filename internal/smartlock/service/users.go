package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

// TokenIssuer signs access tokens for newly registered users.
type TokenIssuer interface {
	Issue(userID string, role types.Role) (string, error)
}

type UserService struct {
	users    store.UserStore
	router   Broadcaster
	tokens   TokenIssuer
	deviceID string
	logger   zerolog.Logger
}

func NewUserService(users store.UserStore, router Broadcaster, tokens TokenIssuer, deviceID string, logger zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		router:   router,
		tokens:   tokens,
		deviceID: deviceID,
		logger:   logger.With().Str("component", "users").Logger(),
	}
}

func validPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Register creates the user, issues a token and announces the new credential
// to every connected controller. Having no controller connected is not an
// error; the pin is pushed again on the next registration only.
func (s *UserService) Register(ctx context.Context, req types.RegisterRequest) (types.RegisterResponse, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.FullName)
	pin := strings.TrimSpace(req.Pincode)

	if email == "" || !strings.Contains(email, "@") {
		return types.RegisterResponse{}, ErrInvalidEmail
	}
	if name == "" {
		return types.RegisterResponse{}, ErrInvalidFullName
	}
	if !validPin(pin) {
		return types.RegisterResponse{}, ErrInvalidPin
	}

	u, err := s.users.CreateUser(ctx, types.User{
		Email:    email,
		FullName: name,
		Role:     types.RoleLecturer,
		DeviceID: s.deviceID,
		Pin:      pin,
	})
	if err != nil {
		return types.RegisterResponse{}, err
	}

	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return types.RegisterResponse{}, err
	}

	n := s.router.Broadcast(hub.ClassHardware, types.AddUserFrame(u.BiometricID, u.Pin))
	s.logger.Info().
		Str("user_id", u.ID).
		Int("biometric_id", u.BiometricID).
		Int("controllers", n).
		Msg("user registered")

	return types.RegisterResponse{Token: tok, User: u}, nil
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidUserID
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
