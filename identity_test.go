package session_test

import (
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
)

func TestResolveIdentitySeedOnly(t *testing.T) {
	identity := session.ResolveIdentity(nil, session.Seed{
		SubjectID: "u-1",
		Email:     "ada@example.com",
		RoleClaim: "employer",
	}, nil)

	assert.Equal(t, "u-1", identity.SubjectID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, session.RoleEmployer, identity.Role)
	assert.False(t, identity.ProfileComplete)
	assert.Empty(t, identity.DisplayName)
}

func TestResolveIdentityRolePreference(t *testing.T) {
	tests := []struct {
		name     string
		existing *session.Identity
		seed     session.Seed
		profile  *session.ProfileRecord
		expected session.Role
	}{
		{
			name:     "profile role wins over claim",
			seed:     session.Seed{SubjectID: "u-1", RoleClaim: "student"},
			profile:  &session.ProfileRecord{SubjectID: "u-1", Role: "faculty"},
			expected: session.RoleFaculty,
		},
		{
			name:     "claim used when profile role is unusable",
			seed:     session.Seed{SubjectID: "u-1", RoleClaim: "employer"},
			profile:  &session.ProfileRecord{SubjectID: "u-1", Role: "owner"},
			expected: session.RoleEmployer,
		},
		{
			name:     "existing role survives an unusable claim",
			existing: &session.Identity{SubjectID: "u-1", Role: session.RoleAdmin},
			seed:     session.Seed{SubjectID: "u-1", RoleClaim: "manager"},
			expected: session.RoleAdmin,
		},
		{
			name:     "candidate is the final fallback",
			seed:     session.Seed{SubjectID: "u-1"},
			expected: session.RoleCandidate,
		},
		{
			name:     "different subject does not inherit existing role",
			existing: &session.Identity{SubjectID: "u-1", Role: session.RoleSuperAdmin},
			seed:     session.Seed{SubjectID: "u-2"},
			expected: session.RoleCandidate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := session.ResolveIdentity(tt.existing, tt.seed, tt.profile)
			assert.Equal(t, tt.expected, identity.Role)
		})
	}
}

func TestResolveIdentityProfileEnrichment(t *testing.T) {
	identity := session.ResolveIdentity(nil, session.Seed{
		SubjectID: "u-1",
		Email:     "grace@example.com",
	}, &session.ProfileRecord{
		SubjectID: "u-1",
		FirstName: "Grace",
		LastName:  "Hopper",
		Phone:     "2025550175",
		Role:      "faculty",
	})

	assert.Equal(t, "Grace Hopper", identity.DisplayName)
	assert.Equal(t, "+12025550175", identity.Phone)
	assert.Equal(t, session.RoleFaculty, identity.Role)
	assert.True(t, identity.ProfileComplete)
}

func TestResolveIdentityExplicitDisplayNameWins(t *testing.T) {
	identity := session.ResolveIdentity(nil, session.Seed{SubjectID: "u-1"}, &session.ProfileRecord{
		SubjectID:   "u-1",
		FirstName:   "Grace",
		LastName:    "Hopper",
		DisplayName: "Rear Admiral Hopper",
	})

	assert.Equal(t, "Rear Admiral Hopper", identity.DisplayName)
}

func TestResolveIdentityMalformedPhoneTreatedAsAbsent(t *testing.T) {
	identity := session.ResolveIdentity(nil, session.Seed{SubjectID: "u-1"}, &session.ProfileRecord{
		SubjectID: "u-1",
		Phone:     "not a phone",
	})

	assert.Empty(t, identity.Phone)
	assert.True(t, identity.ProfileComplete)
}

func TestResolveIdentityCarriesEnrichmentForward(t *testing.T) {
	enriched := session.ResolveIdentity(nil, session.Seed{
		SubjectID: "u-1",
		Email:     "ada@example.com",
	}, &session.ProfileRecord{
		SubjectID:   "u-1",
		DisplayName: "Ada Lovelace",
		Phone:       "+12025550175",
		Role:        "faculty",
	})

	// a token refresh re-resolves from the seed alone; the merged profile
	// fields must survive
	refreshed := session.ResolveIdentity(&enriched, session.Seed{
		SubjectID: "u-1",
		Email:     "ada@example.com",
		RoleClaim: "faculty",
	}, nil)

	assert.Equal(t, "Ada Lovelace", refreshed.DisplayName)
	assert.Equal(t, "+12025550175", refreshed.Phone)
	assert.True(t, refreshed.ProfileComplete)
	assert.Equal(t, session.RoleFaculty, refreshed.Role)
}
