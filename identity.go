package session

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Identity is the application's resolved view of the authenticated subject.
// Values are replaced wholesale on every resolution, never edited in place.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	Phone       string
	Role        Role
	// ProfileComplete is true once the profile record has been merged at
	// least once.
	ProfileComplete bool
}

// Seed holds the locally available claims the instant a session arrives,
// before any profile fetch completes.
type Seed struct {
	SubjectID string
	Email     string
	RoleClaim string
}

// ProfileRecord is the richer user record fetched asynchronously after
// authentication. Every field is best-effort.
type ProfileRecord struct {
	SubjectID   string
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	Phone       string
	Role        string
}

// DefaultPhoneRegion is the region used to parse profile phone numbers that
// carry no country prefix.
var DefaultPhoneRegion = "US"

// ResolveIdentity merges the seed claims and an optional profile record into
// a new Identity. It is pure and never fails: missing or malformed profile
// fields are treated as absent.
//
// Role preference order: profile.Role, then the seed claim (or the existing
// Identity's role when the claim is unusable), then RoleCandidate.
func ResolveIdentity(existing *Identity, seed Seed, profile *ProfileRecord) Identity {
	identity := Identity{
		SubjectID: seed.SubjectID,
		Email:     seed.Email,
		Role:      resolveRole(existing, seed, profile),
	}

	if existing != nil && existing.SubjectID == seed.SubjectID {
		// carry enrichment forward between resolutions for the same subject
		identity.DisplayName = existing.DisplayName
		identity.Phone = existing.Phone
		identity.ProfileComplete = existing.ProfileComplete
		if identity.Email == "" {
			identity.Email = existing.Email
		}
	}

	if profile == nil {
		return identity
	}

	if profile.Email != "" {
		identity.Email = profile.Email
	}
	if name := profileDisplayName(profile); name != "" {
		identity.DisplayName = name
	}
	if phone := normalizePhone(profile.Phone); phone != "" {
		identity.Phone = phone
	}
	identity.ProfileComplete = true

	return identity
}

func resolveRole(existing *Identity, seed Seed, profile *ProfileRecord) Role {
	if profile != nil {
		if role, ok := ParseRole(profile.Role); ok {
			return role
		}
	}

	if role, ok := ParseRole(seed.RoleClaim); ok {
		return role
	}

	if existing != nil && existing.SubjectID == seed.SubjectID && IsValidRole(existing.Role) {
		return existing.Role
	}

	return RoleCandidate
}

func profileDisplayName(profile *ProfileRecord) string {
	if profile.DisplayName != "" {
		return profile.DisplayName
	}
	name := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	return name
}

// normalizePhone formats a best-effort phone string as E.164. Malformed
// numbers are treated as absent.
func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}

	return phonenumbers.Format(num, phonenumbers.E164)
}
