package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/vittoswine/vittos-api/internal/application/auth"
	"github.com/vittoswine/vittos-api/internal/application/dto"
	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
)

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// List listado paginado (admin).
func (uc *UserUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *auth.ToUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// AdminUpdate cambia datos y rol de cualquier usuario.
func (uc *UserUseCase) AdminUpdate(ctx context.Context, id string, in dto.AdminUpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		email, err := auth.CheckEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Role != nil {
		if *in.Role != entity.RoleAdmin && *in.Role != entity.RoleCustomer {
			return nil, domain.NewValidationError("role", "debe ser %q o %q", entity.RoleAdmin, entity.RoleCustomer)
		}
		user.Role = *in.Role
	}
	if err := applyProfile(user, in.Name, in.Phone, in.Address); err != nil {
		return nil, err
	}
	return uc.save(ctx, user)
}

// UpdateProfile cambios del propio usuario (sin email ni rol).
func (uc *UserUseCase) UpdateProfile(ctx context.Context, id string, in dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProfile(user, in.Name, in.Phone, in.Address); err != nil {
		return nil, err
	}
	return uc.save(ctx, user)
}

// Delete elimina un usuario. ErrInUse si tiene pedidos.
func (uc *UserUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *UserUseCase) get(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (uc *UserUseCase) save(ctx context.Context, user *entity.User) (*dto.UserResponse, error) {
	user.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

func applyProfile(user *entity.User, name, phone, address *string) error {
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return domain.NewValidationError("name", "no puede quedar vacío")
		}
		user.Name = strings.TrimSpace(*name)
	}
	if phone != nil {
		user.Phone = strings.TrimSpace(*phone)
	}
	if address != nil {
		user.Address = strings.TrimSpace(*address)
	}
	return nil
}
