package session

import (
	"github.com/golang-jwt/jwt/v5"
)

// accessTokenClaims is the shape of the hosted service's access token
// payload. Only the fields needed to seed an Identity are decoded.
type accessTokenClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
}

func (c *accessTokenClaims) roleClaim() string {
	if c.UserMetadata != nil {
		if role, ok := c.UserMetadata["role"].(string); ok && role != "" {
			return role
		}
	}
	if c.AppMetadata != nil {
		if role, ok := c.AppMetadata["role"].(string); ok && role != "" {
			return role
		}
	}
	return c.Role
}

// seedFromSession extracts the locally available claims from a live session
// so the UI can unblock without waiting on the network. The session's own
// fields win; the access token payload fills the gaps. The token signature
// is NOT checked here unless a verifier is configured: seeding only affects
// which portal shell renders, every data access is still authorized by the
// external service.
func seedFromSession(sess *Session, verifier TokenVerifier, logger Logger) Seed {
	seed := Seed{
		SubjectID: sess.SubjectID,
		Email:     sess.Email,
		RoleClaim: sess.RoleClaim(),
	}

	if sess.AccessToken == "" {
		return seed
	}

	if verifier != nil {
		if err := verifier.Verify(sess.AccessToken); err != nil {
			logger.Warn("access token failed verification, ignoring token claims", "error", err)
			return seed
		}
	}

	claims := &accessTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.AccessToken, claims); err != nil {
		logger.Debug("unable to parse access token claims", "error", err)
		return seed
	}

	if seed.SubjectID == "" {
		seed.SubjectID = claims.Subject
	}
	if seed.Email == "" {
		seed.Email = claims.Email
	}
	if seed.RoleClaim == "" {
		seed.RoleClaim = claims.roleClaim()
	}

	return seed
}
