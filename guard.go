package session

import (
	"net/http"
	"time"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// SnapshotSource is what the guard reads on every navigation. The
// Controller satisfies it.
type SnapshotSource interface {
	Snapshot() Snapshot
}

// GuardConfig holds the guard's routing knobs.
type GuardConfig struct {
	// LoginPath receives unauthenticated visitors. Default "/login".
	LoginPath string
	// HomePath receives authenticated but misrouted subjects. Default "/".
	HomePath string
	// RedirectCookie stores the originally requested location so the login
	// flow can return the visitor to it. Default "rejected_route".
	RedirectCookie string
}

func (c GuardConfig) withDefaults() GuardConfig {
	if c.LoginPath == "" {
		c.LoginPath = "/login"
	}
	if c.HomePath == "" {
		c.HomePath = "/"
	}
	if c.RedirectCookie == "" {
		c.RedirectCookie = "rejected_route"
	}
	return c
}

// RouteGuard adapts the authorization gate to go-router navigation. The gate
// itself stays pure; the guard owns the redirects and the requested-location
// cookie protocol.
type RouteGuard struct {
	source SnapshotSource
	cfg    GuardConfig
	Logger Logger
}

// NewRouteGuard builds a guard over a snapshot source.
func NewRouteGuard(source SnapshotSource, cfg GuardConfig) *RouteGuard {
	return &RouteGuard{
		source: source,
		cfg:    cfg.withDefaults(),
		Logger: defLogger{},
	}
}

// Protected gates a route group by role. An empty set only requires a
// signed-in subject. The decision is re-evaluated on every request; it is
// never cached, since profile enrichment can change the Identity between
// navigations.
func (g *RouteGuard) Protected(allowed RoleSet) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			snapshot := g.source.Snapshot()

			if !snapshot.Resolved() {
				// the gate is meaningless until bootstrap settles; tell the
				// client to retry instead of guessing a decision
				c.SetHeader("Retry-After", "1")
				return c.Status(http.StatusServiceUnavailable).SendString("session bootstrapping")
			}

			switch Authorize(snapshot, allowed) {
			case DecisionProceed:
				return next(c)

			case DecisionRedirectToLogin:
				g.SetRedirect(c)
				return c.Redirect(g.cfg.LoginPath, redirectStatus(c))

			default:
				g.Logger.Info(
					"authenticated subject misrouted",
					"subject", snapshot.SubjectID(),
					"path", c.OriginalURL(),
					"allowed", print.MaybePrettyJSON(allowed),
				)
				return c.Redirect(g.cfg.HomePath, redirectStatus(c))
			}
		}
	}
}

// SetRedirect remembers the originally requested location.
func (g *RouteGuard) SetRedirect(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     g.cfg.RedirectCookie,
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirectOrDefault pops the remembered location, falling back to the
// referer header and then the home path.
func (g *RouteGuard) GetRedirectOrDefault(c router.Context) string {
	refererHeader := string(c.Referer())

	r := c.Cookies(g.cfg.RedirectCookie, refererHeader)
	if r == "" {
		r = g.cfg.HomePath
	}
	g.cookieDel(c, g.cfg.RedirectCookie)
	return r
}

func (g *RouteGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func redirectStatus(c router.Context) int {
	if c.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
