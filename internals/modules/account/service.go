package account

import (
	"context"
	"errors"

	"watchpost/internals/modules/notify"
	"watchpost/internals/security"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
)

type Service struct {
	repo     *Repository
	tokenSvc *security.TokenService
}

func NewService(repo *Repository, tokenSvc *security.TokenService) *Service {
	return &Service{
		repo:     repo,
		tokenSvc: tokenSvc,
	}
}

func (s *Service) Register(ctx context.Context, cmd CreateAccountCmd) (uuid.UUID, error) {
	const op string = "service.account.register"

	existing, err := s.repo.GetByEmail(ctx, cmd.Email)
	if err != nil && !apperror.IsKind(err, apperror.NotFound) {
		return uuid.Nil, err
	}
	if existing != nil {
		return uuid.Nil, apperror.New(apperror.AlreadyExists, op, errors.New("email taken")).
			WithMessage("an account with this email already exists")
	}

	hash, err := security.HashPassword(cmd.Password)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.Internal, op, err)
	}

	return s.repo.Create(ctx, cmd.Name, cmd.Email, hash)
}

func (s *Service) LogIn(ctx context.Context, cmd LogInCmd) (LogInResult, error) {
	const op string = "service.account.login"

	a, err := s.repo.GetByEmail(ctx, cmd.Email)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return LogInResult{}, invalidCredentials(op)
		}
		return LogInResult{}, err
	}

	ok, err := security.ComparePassword(cmd.Password, a.PasswordHash)
	if err != nil {
		return LogInResult{}, apperror.New(apperror.Internal, op, err)
	}
	if !ok {
		return LogInResult{}, invalidCredentials(op)
	}

	token, err := s.tokenSvc.GenerateAccessToken(security.RequestClaims{
		AccountID: a.ID.String(),
		Email:     a.Email,
	})
	if err != nil {
		return LogInResult{}, apperror.New(apperror.Internal, op, err)
	}

	return LogInResult{
		AccountID:   a.ID,
		AccessToken: token,
	}, nil
}

func (s *Service) GetProfile(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// NotificationSettings resolves the channel configuration the
// dispatcher uses for one account's events.
func (s *Service) NotificationSettings(ctx context.Context, accountID uuid.UUID) (notify.Settings, error) {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return notify.Settings{}, err
	}
	return a.NotificationSettings, nil
}

func (s *Service) UpdateNotificationSettings(ctx context.Context, accountID uuid.UUID, settings notify.Settings) error {
	return s.repo.UpdateNotificationSettings(ctx, accountID, settings)
}

func invalidCredentials(op string) error {
	return apperror.New(apperror.Unauthorised, op, errors.New("bad credentials")).
		WithMessage("invalid email or password")
}
