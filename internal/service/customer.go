package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/audit"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/retry"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

const taxIDLength = 11

type CustomerIdentity struct {
	Name   string
	Email  string
	TaxID  string
	Phone  string
	Source string
}

type ResolvedCustomer struct {
	ID         string
	IsExisting bool
}

type CustomerResolver interface {
	Resolve(ctx context.Context, identity CustomerIdentity) (*ResolvedCustomer, error)
}

type customerResolverImpl struct {
	accountRepo repository.AccountRepository
	profileRepo repository.ProfileRepository
	policy      retry.Policy
	hashCost    int
	audit       audit.Recorder
	logger      *log.Logger
}

type ResolverOption func(*customerResolverImpl)

func WithRetryPolicy(p retry.Policy) ResolverOption {
	return func(r *customerResolverImpl) { r.policy = p }
}

// WithHashCost lowers the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) ResolverOption {
	return func(r *customerResolverImpl) { r.hashCost = cost }
}

func NewCustomerResolver(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfileRepository,
	recorder audit.Recorder,
	logger *log.Logger,
	opts ...ResolverOption,
) CustomerResolver {
	r := &customerResolverImpl{
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		policy:      retry.DefaultPolicy(),
		hashCost:    bcrypt.DefaultCost,
		audit:       recorder,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeTaxID keeps the digits of a CPF and requires exactly 11 of them.
func NormalizeTaxID(taxID string) (string, error) {
	var b strings.Builder
	for _, r := range taxID {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() != taxIDLength {
		return "", apperr.Validation("cpf must have %d digits", taxIDLength)
	}
	return b.String(), nil
}

func (r *customerResolverImpl) Resolve(ctx context.Context, identity CustomerIdentity) (*ResolvedCustomer, error) {
	email := NormalizeEmail(identity.Email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	taxID, err := NormalizeTaxID(identity.TaxID)
	if err != nil {
		return nil, err
	}
	identity.Email = email
	identity.TaxID = taxID
	identity.Name = strings.TrimSpace(identity.Name)
	identity.Phone = strings.TrimSpace(identity.Phone)

	account, err := r.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	profile, err := r.profileRepo.FindByTaxID(ctx, taxID)
	if err != nil {
		return nil, fmt.Errorf("find profile by cpf: %w", err)
	}

	if profile != nil && profile.Email != email {
		r.conflict(ctx, profile.ID, "cpf_bound_to_other_email")
		return nil, fmt.Errorf("%w: cpf already registered with another email", apperr.ErrIdentityConflict)
	}
	if account != nil && profile != nil && profile.ID != account.ID {
		r.conflict(ctx, account.ID, "account_profile_mismatch")
		return nil, fmt.Errorf("%w: account %s is linked to profile %s", apperr.ErrIdentityConflict, account.ID, profile.ID)
	}

	if account != nil {
		if err := r.refreshProfile(ctx, account.ID, identity); err != nil {
			return nil, err
		}
		return &ResolvedCustomer{ID: account.ID, IsExisting: true}, nil
	}

	var resolved *ResolvedCustomer
	err = retry.Do(ctx, r.policy, func(ctx context.Context, attempt int) error {
		res, err := r.create(ctx, identity)
		if err != nil {
			r.logger.Warnf("resolve customer %s: attempt %d: %v", email, attempt, err)
			return err
		}
		resolved = res
		return nil
	})
	if err != nil {
		r.audit.Record(ctx, audit.Error("customer.resolve_failed", err, map[string]any{"email": email}))
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	typ := "customer.created"
	if resolved.IsExisting {
		typ = "customer.reused"
	}
	r.audit.Record(ctx, audit.Info(typ, nil).ForCustomer(resolved.ID))
	return resolved, nil
}

// create is one attempt of the find-or-create loop. Conflicts and orphan
// cleanup come back as permanent errors; anything else is retried.
func (r *customerResolverImpl) create(ctx context.Context, identity CustomerIdentity) (*ResolvedCustomer, error) {
	existing, err := r.accountRepo.FindByEmail(ctx, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("recheck account: %w", err)
	}
	if existing != nil {
		if err := r.refreshProfile(ctx, existing.ID, identity); err != nil {
			return nil, retry.Permanent(err)
		}
		return &ResolvedCustomer{ID: existing.ID, IsExisting: true}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(identity.TaxID), r.hashCost)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("hash password: %w", err))
	}

	source := identity.Source
	if source == "" {
		source = "checkout"
	}
	account := &model.Account{
		ID:           uuid.NewString(),
		Email:        identity.Email,
		PasswordHash: string(hash),
		Metadata: datatypes.JSONMap{
			"name":   identity.Name,
			"phone":  identity.Phone,
			"source": source,
		},
	}

	err = r.accountRepo.Create(ctx, account)
	if errors.Is(err, repository.ErrAccountExists) {
		winner, err := r.accountRepo.FindByEmail(ctx, identity.Email)
		if err != nil {
			return nil, fmt.Errorf("fetch concurrent account: %w", err)
		}
		if winner == nil {
			return nil, errors.New("account reported as existing but not found")
		}
		return &ResolvedCustomer{ID: winner.ID, IsExisting: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	err = r.profileRepo.Insert(ctx, &model.Profile{
		ID:              account.ID,
		Email:           identity.Email,
		TaxID:           identity.TaxID,
		Name:            identity.Name,
		Phone:           identity.Phone,
		Access:          []string{},
		IsAdmin:         false,
		FirstAccess:     true,
		PasswordChanged: false,
	})
	if err == nil {
		return &ResolvedCustomer{ID: account.ID, IsExisting: false}, nil
	}

	// A concurrent caller that found our account may have written the
	// profile first.
	if errors.Is(err, repository.ErrProfileExists) {
		if p, ferr := r.profileRepo.FindByID(ctx, account.ID); ferr == nil && p != nil && p.TaxID == identity.TaxID {
			return &ResolvedCustomer{ID: account.ID, IsExisting: false}, nil
		}
	}

	if derr := r.accountRepo.Delete(ctx, account.ID); derr != nil {
		r.logger.Errorf("orphaned account %s (%s) needs manual removal: %v", account.ID, identity.Email, derr)
		r.audit.Record(ctx, audit.Error("customer.orphaned_account", derr, map[string]any{
			"email": identity.Email,
		}).ForCustomer(account.ID))
	}
	if errors.Is(err, repository.ErrProfileExists) {
		r.conflict(ctx, account.ID, "cpf_taken_during_creation")
		return nil, retry.Permanent(fmt.Errorf("%w: cpf already registered", apperr.ErrIdentityConflict))
	}
	return nil, retry.Permanent(fmt.Errorf("insert profile: %w", err))
}

func (r *customerResolverImpl) refreshProfile(ctx context.Context, id string, identity CustomerIdentity) error {
	err := r.profileRepo.UpsertIdentity(ctx, &model.Profile{
		ID:          id,
		Email:       identity.Email,
		TaxID:       identity.TaxID,
		Name:        identity.Name,
		Phone:       identity.Phone,
		FirstAccess: true,
	})
	if errors.Is(err, repository.ErrProfileExists) {
		r.conflict(ctx, id, "cpf_taken_on_refresh")
		return fmt.Errorf("%w: cpf already registered", apperr.ErrIdentityConflict)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *customerResolverImpl) conflict(ctx context.Context, customerID, reason string) {
	r.audit.Record(ctx, audit.Warning("customer.conflict", map[string]any{
		"reason": reason,
	}).ForCustomer(customerID))
}
