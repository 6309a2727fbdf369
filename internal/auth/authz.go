package auth

import (
	"slices"
	"strings"

	"github.com/taskforge/taskforge/internal/models"
)

// Permission represents an authorized action
type Permission string

const (
	PermTasksRead    Permission = "tasks:read"
	PermTasksWrite   Permission = "tasks:write"
	PermUsersManage  Permission = "users:manage"
	PermProfileRead  Permission = "profile:read"
	PermProfileWrite Permission = "profile:write"
)

// RolePermissions maps roles to allowed permissions. ADMIN carries the USER
// capabilities explicitly; nothing is derived at evaluation time.
var RolePermissions = map[models.Role][]Permission{
	models.RoleAdmin: {
		PermTasksRead,
		PermTasksWrite,
		PermUsersManage,
		PermProfileRead,
		PermProfileWrite,
	},
	models.RoleUser: {
		PermTasksRead,
		PermProfileRead,
		PermProfileWrite,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role models.Role, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}

// Rule binds an HTTP method and path pattern to an access requirement.
// A pattern segment written as {name} matches any single path segment.
type Rule struct {
	Method  string
	Pattern string

	// Public allows the route with no credential at all.
	Public bool

	// Permission, when set, is required of the principal's role. When empty
	// (and Public is false) any authenticated principal passes.
	Permission Permission
}

// Policy evaluates route rules in declaration order: more specific rules must
// be listed before general fallbacks. Routes that match no rule require an
// authenticated principal (fail-closed).
type Policy struct {
	rules []Rule
}

// NewPolicy creates a policy from an ordered rule list.
func NewPolicy(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the route table for the API.
func DefaultPolicy() *Policy {
	return NewPolicy([]Rule{
		// Public endpoints
		{Method: "GET", Pattern: "/health", Public: true},
		{Method: "POST", Pattern: "/auth/login", Public: true},
		{Method: "POST", Pattern: "/auth/register", Public: true},

		// User endpoints (most specific first)
		{Method: "GET", Pattern: "/users/me"},
		{Method: "GET", Pattern: "/users/{id}", Permission: PermUsersManage},
		{Method: "GET", Pattern: "/users", Permission: PermUsersManage},
		{Method: "PATCH", Pattern: "/users/{id}/role", Permission: PermUsersManage},
		{Method: "PATCH", Pattern: "/users/{id}"}, // self-or-admin enforced by the service
		{Method: "DELETE", Pattern: "/users/{id}", Permission: PermUsersManage},

		// Task endpoints
		{Method: "GET", Pattern: "/tasks/{id}", Permission: PermTasksRead},
		{Method: "GET", Pattern: "/tasks", Permission: PermTasksRead},
		{Method: "POST", Pattern: "/tasks", Permission: PermTasksWrite},
		{Method: "PUT", Pattern: "/tasks/{id}", Permission: PermTasksWrite},
		{Method: "DELETE", Pattern: "/tasks/{id}", Permission: PermTasksWrite},
		{Method: "PATCH", Pattern: "/tasks/{id}/conclude", Permission: PermTasksWrite},
	})
}

// Authorize checks whether the (possibly nil) principal may call the route.
// It returns nil, ErrAuthenticationRequired, or ErrAccessDenied; the two
// failure kinds are distinct and must not be conflated by callers.
func (p *Policy) Authorize(principal *Principal, method, path string) error {
	rule, matched := p.match(method, path)

	if matched && rule.Public {
		return nil
	}

	if principal == nil {
		return ErrAuthenticationRequired
	}

	if !matched || rule.Permission == "" {
		// Fallback and permissionless rules require authentication only.
		return nil
	}

	if !HasPermission(principal.Role, rule.Permission) {
		return ErrAccessDenied
	}

	return nil
}

func (p *Policy) match(method, path string) (Rule, bool) {
	for _, rule := range p.rules {
		if rule.Method == method && matchPath(rule.Pattern, path) {
			return rule, true
		}
	}
	return Rule{}, false
}

// matchPath compares a path against a pattern segment by segment. {name}
// segments match any non-empty segment.
func matchPath(pattern, path string) bool {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i, pp := range patternParts {
		if strings.HasPrefix(pp, "{") && strings.HasSuffix(pp, "}") {
			if pathParts[i] == "" {
				return false
			}
			continue
		}
		if pp != pathParts[i] {
			return false
		}
	}

	return true
}
