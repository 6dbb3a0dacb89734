package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"inkpost/internal/criteria"
	"inkpost/internal/mapper"
	"inkpost/internal/models"
	"inkpost/internal/observability"
	"inkpost/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	maxNameLen  = 64
	maxEmailLen = 128
)

type UserService struct {
	uow repository.Transactor
	now func() time.Time
}

// RegisterUserInput carries an already hashed password; hashing happens
// before the service is called.
type RegisterUserInput struct {
	Name           string
	Email          string
	HashedPassword string
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	UserID         uint
	Name           *string
	HashedPassword *string
}

func NewUserService(uow repository.Transactor) *UserService {
	return &UserService{uow: uow, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (dto *mapper.UserDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.Register")
	defer func() { span.Finish(err) }()

	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.HashedPassword == "" {
		return nil, models.NewValidationError("Password hash is required")
	}

	err = s.uow.Do(ctx, func(st repository.Store) error {
		existing, err := st.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return emailTaken()
		}

		user := &models.User{Name: name, Email: email, HashedPassword: in.HashedPassword}
		if err := st.Users().Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return emailTaken()
			}
			return err
		}
		out := mapper.ToUserDTO(user)
		dto = &out
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.LogServiceCall(ctx, "UserService", "Register", map[string]any{"user_id": dto.ID})
	return dto, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (dto *mapper.UserDTO, err error) {
	err = s.uow.Do(ctx, func(st repository.Store) error {
		user, err := mustGetUser(ctx, st, id)
		if err != nil {
			return err
		}
		out := mapper.ToUserDTO(user)
		dto = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (dto *mapper.UserDTO, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	err = s.uow.Do(ctx, func(st repository.Store) error {
		user, err := st.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			return models.NewNotFoundError("User", email)
		}
		out := mapper.ToUserDTO(user)
		dto = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *UserService) List(ctx context.Context, c criteria.Criteria) (page *mapper.Page[mapper.UserDTO], err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.List")
	defer func() { span.Finish(err) }()

	err = s.uow.Do(ctx, func(st repository.Store) error {
		users, count, err := st.Users().GetAll(ctx, c)
		if err != nil {
			return err
		}
		page = &mapper.Page[mapper.UserDTO]{Items: mapper.ToUserDTOs(users), Count: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateUserInput) (dto *mapper.UserDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.UpdateProfile", attribute.Int("user.id", int(in.UserID)))
	defer func() { span.Finish(err) }()

	fields := map[string]any{}
	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.HashedPassword != nil {
		if *in.HashedPassword == "" {
			return nil, models.NewValidationError("Password hash is required")
		}
		fields["hashed_password"] = *in.HashedPassword
	}

	err = s.uow.Do(ctx, func(st repository.Store) error {
		user, err := mustGetUser(ctx, st, in.UserID)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := st.Users().Update(ctx, in.UserID, fields); err != nil {
				return err
			}
			if user, err = mustGetUser(ctx, st, in.UserID); err != nil {
				return err
			}
		}
		out := mapper.ToUserDTO(user)
		dto = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// SoftDelete marks the user deleted. The row stays; reads skip it.
func (s *UserService) SoftDelete(ctx context.Context, id uint) (err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.SoftDelete", attribute.Int("user.id", int(id)))
	defer func() { span.Finish(err) }()

	return s.uow.Do(ctx, func(st repository.Store) error {
		if _, err := mustGetUser(ctx, st, id); err != nil {
			return err
		}
		return st.Users().Update(ctx, id, map[string]any{models.DeletedAtField: s.now()})
	})
}

// Restore clears the deletion marker. Restoring fails when another live
// user has taken the email in the meantime.
func (s *UserService) Restore(ctx context.Context, id uint) (dto *mapper.UserDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "UserService.Restore", attribute.Int("user.id", int(id)))
	defer func() { span.Finish(err) }()

	err = s.uow.Do(ctx, func(st repository.Store) error {
		users, _, err := st.Users().GetAll(ctx, criteria.New().
			Where("id", criteria.OpEq, id).
			WithDeleted().
			Page(1, 0))
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return models.NewNotFoundError("User", id)
		}

		user := users[0]
		if user.IsDeleted() {
			taken, err := st.Users().GetByEmail(ctx, user.Email)
			if err != nil {
				return err
			}
			if taken != nil {
				return emailTaken()
			}
			if err := st.Users().Update(ctx, id, map[string]any{models.DeletedAtField: nil}); err != nil {
				return err
			}
			if user, err = mustGetUser(ctx, st, id); err != nil {
				return err
			}
		}

		out := mapper.ToUserDTO(user)
		dto = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func mustGetUser(ctx context.Context, st repository.Store, id uint) (*models.User, error) {
	user, err := st.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

func emailTaken() error {
	return models.NewValidationError("Email is already registered")
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("Name is required")
	}
	if len(name) > maxNameLen {
		return "", models.NewValidationError("Name too long (max 64 characters)")
	}
	return name, nil
}

func validateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > maxEmailLen {
		return "", models.NewValidationError("Email too long (max 128 characters)")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", models.NewValidationError("Invalid email address")
	}
	return email, nil
}
