package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/feature/auth/usecase"
	"crud_backend/internal/platform/persistence"
	"crud_backend/internal/platform/search"
)

// AuditEntity is the entity name user revisions are recorded under.
const AuditEntity = "entidade"

// userMySQL implements UserRepository on top of the generic gateway.
type userMySQL struct {
	db *gorm.DB
	gw *persistence.Gateway[entity.User]
}

var _ usecase.UserRepository = (*userMySQL)(nil)

// NewUserGateway returns the audited gateway used for users.
func NewUserGateway(db *gorm.DB) *persistence.Gateway[entity.User] {
	return persistence.NewGateway[entity.User](db, persistence.WithAudit(AuditEntity), persistence.WithPreload("Permissions"))
}

// NewUserMySQL creates a userMySQL.
func NewUserMySQL(db *gorm.DB) *userMySQL {
	return &userMySQL{db: db, gw: NewUserGateway(db)}
}

func translate(err error) error {
	if errors.Is(err, persistence.ErrDuplicate) {
		return usecase.ErrLoginAlreadyExists
	}
	return notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return usecase.ErrUserNotFound
	}
	return err
}

// Create inserts u together with its permissions.
func (r *userMySQL) Create(ctx context.Context, u *entity.User) error {
	return translate(r.gw.Save(ctx, u))
}

// Save stores u and replaces its permissions in one transaction, then
// returns the stored row.
func (r *userMySQL) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	perms := u.Permissions
	var saved *entity.User
	err := persistence.InTx(ctx, r.db, func(ctx context.Context) error {
		u.Permissions = nil
		merged, err := r.gw.Merge(ctx, u)
		if err != nil {
			return err
		}

		tx := persistence.Conn(ctx, r.db)
		if err := tx.Where("entidade_id = ?", merged.ID).Delete(&entity.Permission{}).Error; err != nil {
			return err
		}
		for _, p := range perms {
			p.UserID = merged.ID
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}

		saved, err = r.gw.FindByID(ctx, merged.ID)
		return err
	})
	u.Permissions = perms
	if err != nil {
		return nil, translate(persistence.Classify(err))
	}
	return saved, nil
}

// FindByLogin returns the user with login, active or not.
func (r *userMySQL) FindByLogin(ctx context.Context, login string) (*entity.User, error) {
	u, err := r.gw.FindUniqueByProperty(ctx, "login", login, search.Condition{})
	return u, notFound(err)
}

// FindByID returns the user with id.
func (r *userMySQL) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	u, err := r.gw.FindByID(ctx, id)
	return u, notFound(err)
}

// FindByCPF returns the active user registered with cpf.
func (r *userMySQL) FindByCPF(ctx context.Context, cpf string) (*entity.User, error) {
	u, err := r.gw.FindUniqueByProperty(ctx, "cpf", cpf, search.Where("inactive = ?", false))
	return u, notFound(err)
}

// TouchLastAccess sets the last access time without bumping UpdatedAt.
func (r *userMySQL) TouchLastAccess(ctx context.Context, id uint, at time.Time) error {
	n, err := r.gw.Exec(ctx, "UPDATE entidade SET last_access = ? WHERE id = ?", at, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}
