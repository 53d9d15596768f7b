package authmw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nerzal/gocloak/v13"
)

var ErrUserNotFound = errors.New("user not found")

// Service talks to the keycloak admin API with a service account.
type Service struct {
	Client       *gocloak.GoCloak
	Realm        string
	clientID     string
	clientSecret string
}

func NewService(baseURL, realm, clientID, clientSecret string) *Service {
	return &Service{
		Client:       gocloak.NewClient("http://" + baseURL),
		Realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// SelfTest logs in with the service account and reads the realm.
func (s *Service) SelfTest(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	jwt, err := s.LoginAdmin(ctx)
	if err != nil {
		return fmt.Errorf("keycloak auth failed: %w", err)
	}

	_, err = s.Client.GetRealm(ctx, jwt.AccessToken, s.Realm)
	if err != nil {
		return fmt.Errorf("keycloak permission check failed: %w", err)
	}

	return nil
}

func (s *Service) LoginAdmin(ctx context.Context) (*gocloak.JWT, error) {
	return s.Client.LoginClient(
		ctx,
		s.clientID,
		s.clientSecret,
		s.Realm,
	)
}

// LoginUser runs the password grant, used by the terminal board.
func (s *Service) LoginUser(
	ctx context.Context,
	username, password string,
) (*gocloak.JWT, error) {

	return s.Client.Login(
		ctx,
		s.clientID,
		s.clientSecret,
		s.Realm,
		username,
		password,
	)
}

func (s *Service) RefreshUser(ctx context.Context, refreshToken string) (*gocloak.JWT, error) {
	return s.Client.RefreshToken(ctx, refreshToken, s.clientID, s.clientSecret, s.Realm)
}

func (s *Service) GetUserByUsername(ctx context.Context, token, username string) (*gocloak.User, error) {
	users, err := s.Client.GetUsers(ctx, token, s.Realm, gocloak.GetUsersParams{
		Username: gocloak.StringP(username),
		Exact:    gocloak.BoolP(true),
		Max:      gocloak.IntP(2),
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	if len(users) > 1 {
		return nil, fmt.Errorf("multiple users matched username")
	}
	return users[0], nil
}

// UserExists resolves a username with a fresh service account token.
func (s *Service) UserExists(ctx context.Context, username string) (bool, error) {
	jwt, err := s.LoginAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("keycloak admin login: %w", err)
	}

	_, err = s.GetUserByUsername(ctx, jwt.AccessToken, username)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
