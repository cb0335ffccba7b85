// Package bunprofile implements session.ProfileProvider over a Bun-managed
// profiles table, for deployments that keep the richer user record in their
// own database instead of the hosted auth service.
package bunprofile

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-session"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is the profiles table model.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	UserID        uuid.UUID  `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Role          string     `bun:"user_role" json:"user_role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Provider fetches profile records with Bun.
type Provider struct {
	db *bun.DB
}

var _ session.ProfileProvider = (*Provider)(nil)

// New wraps an existing Bun DB.
func New(db *bun.DB) *Provider {
	return &Provider{db: db}
}

// FetchProfile returns the profile record for the subject, or (nil, nil)
// when none exists. A subject id that is not a UUID is treated as absent,
// not as an error.
func (p *Provider) FetchProfile(ctx context.Context, subjectID string) (*session.ProfileRecord, error) {
	id, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, nil
	}

	profile := new(Profile)
	err = p.db.NewSelect().
		Model(profile).
		Where("user_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch profile record")
	}

	return &session.ProfileRecord{
		SubjectID:   profile.UserID.String(),
		Email:       profile.Email,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		DisplayName: profile.DisplayName,
		Phone:       profile.Phone,
		Role:        profile.Role,
	}, nil
}
