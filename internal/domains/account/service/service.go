package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retreat/config"
	"retreat/infras/jwt"
	"retreat/infras/otel"
	"retreat/internal/domains/account/model"
	"retreat/internal/domains/account/model/dto"
	"retreat/internal/domains/account/repository"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"
	"retreat/shared/password"
	gRepo "retreat/shared/repository"
	"retreat/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	tokenType = "Bearer"

	msgInvalidCredentials = "Invalid email or password"
)

type Account interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Create(ctx context.Context, req dto.CreateAccountRequest) (dto.AccountResponse, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error
}

type serviceImpl struct {
	repo       repository.Account
	jwtService jwt.JWT
	cfg        *config.Config
	otel       otel.Otel
}

func New(repo repository.Account, jwtService jwt.JWT, cfg *config.Config, otel otel.Otel) Account {
	return &serviceImpl{
		repo:       repo,
		jwtService: jwtService,
		cfg:        cfg,
		otel:       otel,
	}
}

func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".account.Login")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	email := dto.NormalizeEmail(req.Email)

	account, err := s.repo.Get(ctx, gDto.And(gDto.Eq(model.FieldEmail, email)))
	if errors.Is(err, gRepo.ErrNotFound) {
		log.Warn().Str("email", email).Msg("login attempt for unknown account")

		return res, failure.Unauthorized(msgInvalidCredentials) //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to get account")

		return res, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.Active {
		log.Warn().Str("account_id", account.ID).Msg("login attempt for inactive account")

		return res, failure.Unauthorized(msgInvalidCredentials) //nolint:wrapcheck
	}

	if err = password.Verify(req.Password, account.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			log.Warn().Str("account_id", account.ID).Msg("login attempt with wrong password")

			return res, failure.Unauthorized(msgInvalidCredentials) //nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to verify password")

		return res, fmt.Errorf("failed to verify password: %w", err)
	}

	ttl := time.Duration(s.cfg.JWT.AccessTTLMinutes) * time.Minute

	token, err := s.jwtService.Sign(account.ID, account.Role, ttl)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign access token")

		return res, fmt.Errorf("failed to sign access token: %w", err)
	}

	now := timezone.Now()
	fields := map[string]any{
		model.FieldLastLoginAt:   now,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: account.ID,
	}

	if password.NeedsRehash(account.PasswordHash) {
		if hash, err := password.Hash(req.Password); err == nil {
			fields[model.FieldPasswordHash] = hash
		}
	}

	if _, err := s.repo.Update(ctx, fields, shared.FilterByID(account.ID, model.FieldID)); err != nil {
		log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to record last login")
	}

	log.Info().Str("account_id", account.ID).Str("role", account.Role).Msg("account logged in")

	return dto.LoginResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int64(ttl.Seconds()),
		Role:        account.Role,
	}, nil
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateAccountRequest) (res dto.AccountResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".account.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	email := dto.NormalizeEmail(req.Email)

	exist, err := s.repo.Exist(ctx, gDto.And(gDto.Eq(model.FieldEmail, email)))
	if err != nil {
		log.Error().Err(err).Msg("failed to check account existence")

		return res, fmt.Errorf("failed to check account existence: %w", err)
	}

	if exist {
		return res, failure.Conflict("Account with this email already exists") //nolint:wrapcheck
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return res, fmt.Errorf("failed to hash password: %w", err)
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	account := req.ToModel(hash, shared.FirstNonEmpty(user, constant.SystemUser))

	if err = s.repo.Insert(ctx, account); err != nil {
		if errors.Is(err, gRepo.ErrDuplicate) {
			return res, failure.Conflict("Account with this email already exists") //nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create account")

		return res, fmt.Errorf("failed to create account: %w", err)
	}

	log.Info().Str("account_id", account.ID).Str("role", account.Role).Msg("account created")

	res.FromModel(account)

	return res, nil
}

func (s *serviceImpl) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".account.ChangePassword")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	id, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if id == "" {
		return failure.Unauthorized("Unauthorized") //nolint:wrapcheck
	}

	account, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID))
	if errors.Is(err, gRepo.ErrNotFound) {
		return failure.NotFound("Account not found") //nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("account_id", id).Msg("failed to get account")

		return fmt.Errorf("failed to get account: %w", err)
	}

	if err = password.Verify(req.CurrentPassword, account.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return failure.BadRequestFromString("Current password is incorrect") //nolint:wrapcheck
		}

		return fmt.Errorf("failed to verify password: %w", err)
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err = s.repo.Update(ctx, map[string]any{
		model.FieldPasswordHash:  hash,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: id,
	}, shared.FilterByID(id, model.FieldID)); err != nil {
		log.Error().Err(err).Str("account_id", id).Msg("failed to update password")

		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info().Str("account_id", id).Msg("account password changed")

	return nil
}
