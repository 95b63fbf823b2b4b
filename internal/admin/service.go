package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/pkg/db"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
)

type adminRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	FindByWallet(ctx context.Context, wallet string) (*models.AdminUser, error)
	List(ctx context.Context) ([]models.AdminUser, error)
	FindByWalletWithTx(tx *gorm.DB, wallet string) (*models.AdminUser, error)
	CountWithRoleWithTx(tx *gorm.DB, role enums.AdminRole) (int64, error)
	UpdateWithTx(tx *gorm.DB, user *models.AdminUser) error
	DeleteWithTx(tx *gorm.DB, wallet string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes platform role management.
type Service interface {
	Create(ctx context.Context, wallet string, role enums.AdminRole) (*UserDTO, error)
	GetByWallet(ctx context.Context, wallet string) (*UserDTO, error)
	List(ctx context.Context) ([]UserDTO, error)
	UpdateRole(ctx context.Context, wallet string, role enums.AdminRole) (*UserDTO, error)
	Delete(ctx context.Context, wallet string) error
}

type service struct {
	repo adminRepository
	tx   txRunner
}

// NewService builds an admin service with the provided dependencies.
func NewService(repo adminRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, wallet string, role enums.AdminRole) (*UserDTO, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet is required")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid admin role")
	}

	user := &models.AdminUser{Wallet: wallet, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "wallet already has a platform role")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin")
	}
	return FromModel(user), nil
}

func (s *service) GetByWallet(ctx context.Context, wallet string) (*UserDTO, error) {
	user, err := s.repo.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admins")
	}
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, *FromModel(&users[i]))
	}
	return out, nil
}

// UpdateRole changes a wallet's platform role. Demoting the last
// platform_super_admin is refused; the count check runs in the same
// transaction as the write.
func (s *service) UpdateRole(ctx context.Context, wallet string, role enums.AdminRole) (*UserDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid admin role")
	}

	var updated *models.AdminUser
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.repo.FindByWalletWithTx(tx, wallet)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
		}

		if user.Role == enums.AdminRolePlatformSuperAdmin && role != enums.AdminRolePlatformSuperAdmin {
			if err := s.ensureNotLastSuperAdmin(tx); err != nil {
				return err
			}
		}

		user.Role = role
		if err := s.repo.UpdateWithTx(tx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update admin")
		}
		updated = user
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}
	return FromModel(updated), nil
}

// Delete removes a wallet's platform role, refusing to drop the last
// platform_super_admin.
func (s *service) Delete(ctx context.Context, wallet string) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.repo.FindByWalletWithTx(tx, wallet)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
		}

		if user.Role == enums.AdminRolePlatformSuperAdmin {
			if err := s.ensureNotLastSuperAdmin(tx); err != nil {
				return err
			}
		}

		if err := s.repo.DeleteWithTx(tx, wallet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete admin")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete admin")
	}
	return nil
}

func (s *service) ensureNotLastSuperAdmin(tx *gorm.DB) error {
	count, err := s.repo.CountWithRoleWithTx(tx, enums.AdminRolePlatformSuperAdmin)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count super admins")
	}
	if count <= 1 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot remove the last platform super admin")
	}
	return nil
}
