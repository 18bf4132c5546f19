package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the bun backed credential store plus the admin operations
// the user management API needs. Generic reads and writes come from the
// embedded repository; lookups by email and the login bookkeeping are
// account specific.
type Accounts interface {
	repository.Repository[*Account]
	AccountStore

	GetByEmail(ctx context.Context, email string) (*Account, error)
	EmailTakenTx(ctx context.Context, tx bun.IDB, email string, exclude uuid.UUID) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Account, error)
	Stats(ctx context.Context, since time.Time) (*AccountStats, error)
}

type accounts struct {
	repository.Repository[*Account]
	db  *bun.DB
	now func() time.Time
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

type AccountsOption func(*accounts)

// WithAccountsClock sets the clock used for timestamps.
func WithAccountsClock(now func() time.Time) AccountsOption {
	return func(a *accounts) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoAccounts := &accounts{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoAccounts)
		}
	}
	return repoAccounts
}

// UpdateColumns limits an update to the given columns. updated_at is
// always written.
func UpdateColumns(columns ...string) repository.UpdateCriteria {
	cols := append(append([]string{}, columns...), "updated_at")
	return func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Column(cols...)
	}
}

// NewestFirst orders listings by creation date, most recent first.
func NewestFirst() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("created_at DESC")
	}
}

func (a *accounts) timestamp() time.Time {
	return a.now().UTC()
}

func (a *accounts) FindActiveByEmail(ctx context.Context, email string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Where("?TableAlias.is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return record, nil
}

func (a *accounts) FindActiveByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return record, nil
}

// TrackSuccessfulLogin stamps last_login_at. Callers treat failures as advisory.
func (a *accounts) TrackSuccessfulLogin(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("last_login_at = ?", a.timestamp()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (a *accounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Account, error) {
	record, err := a.Repository.GetByID(ctx, id, criteria...)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return record, nil
}

func (a *accounts) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*Account, error) {
	record := &Account{}
	q := tx.NewSelect().Model(record).Where("?TableAlias.id = ?", id)
	for _, c := range criteria {
		q.Apply(c)
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		return nil, mapNotFound(err)
	}
	return record, nil
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return record, nil
}

func (a *accounts) EmailTakenTx(ctx context.Context, tx bun.IDB, email string, exclude uuid.UUID) (bool, error) {
	q := tx.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.email = ?", NormalizeEmail(email))
	if exclude != uuid.Nil {
		q = q.Where("?TableAlias.id != ?", exclude)
	}
	return q.Exists(ctx)
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

// CreateTx inserts record, returning ErrEmailInUse if the email is taken.
func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	if record == nil {
		return nil, errors.New("account must not be nil")
	}

	a.prepareDefaults(record)

	taken, err := a.EmailTakenTx(ctx, tx, record.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailInUse
	}

	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return created, nil
}

func (a *accounts) Update(ctx context.Context, record *Account, criteria ...repository.UpdateCriteria) (*Account, error) {
	return a.UpdateTx(ctx, a.db, record, criteria...)
}

// UpdateTx writes record by id. Pass UpdateColumns to restrict the
// columns written. An email change is checked for collisions first.
func (a *accounts) UpdateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.UpdateCriteria) (*Account, error) {
	if record == nil || record.ID == uuid.Nil {
		return nil, ErrAccountNotFound
	}

	if _, err := a.GetByIDTx(ctx, tx, record.ID.String()); err != nil {
		return nil, err
	}

	if record.Email != "" {
		record.Email = NormalizeEmail(record.Email)
		taken, err := a.EmailTakenTx(ctx, tx, record.Email, record.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailInUse
		}
	}

	record.UpdatedAt = a.timestamp()
	criteria = append(criteria, repository.UpdateByID(record.ID.String()))

	if _, err := a.Repository.UpdateTx(ctx, tx, record, criteria...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, mapNotFound(err)
	}

	return a.GetByIDTx(ctx, tx, record.ID.String())
}

func (a *accounts) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Account, error) {
	res, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("is_active = ?", active).
		Set("updated_at = ?", a.timestamp()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return a.GetByID(ctx, id.String())
}

// Stats counts accounts; since marks the start of the "new" window.
func (a *accounts) Stats(ctx context.Context, since time.Time) (*AccountStats, error) {
	count := func(apply func(*bun.SelectQuery) *bun.SelectQuery) (int, error) {
		q := a.db.NewSelect().Model((*Account)(nil))
		if apply != nil {
			q = apply(q)
		}
		return q.Count(ctx)
	}

	stats := &AccountStats{}
	var err error

	if stats.Total, err = count(nil); err != nil {
		return nil, err
	}
	if stats.Active, err = count(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.is_active = ?", true)
	}); err != nil {
		return nil, err
	}
	if stats.Admins, err = count(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.role = ?", string(RoleAdmin))
	}); err != nil {
		return nil, err
	}
	if stats.Regular, err = count(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.role = ?", string(RoleUser))
	}); err != nil {
		return nil, err
	}
	if stats.NewThisMonth, err = count(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.created_at >= ?", since.UTC())
	}); err != nil {
		return nil, err
	}
	stats.Inactive = stats.Total - stats.Active

	return stats, nil
}

func (a *accounts) prepareDefaults(record *Account) {
	record.Email = NormalizeEmail(record.Email)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.DefaultPriority == "" {
		record.DefaultPriority = PriorityMedium
	}
	now := a.timestamp()
	record.CreatedAt = now
	record.UpdatedAt = now
}

// mapNotFound folds both the repository and the driver flavour of "no rows"
// into ErrAccountNotFound.
func mapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
		return ErrAccountNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
