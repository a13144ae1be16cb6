package domain

import (
	"encoding/json"
	"strings"
)

// Role is the closed set of roles a user can hold.
type Role uint8

const (
	roleUnknown Role = iota
	RoleArtist
	RoleAdmin
)

// ParseRole converts an external role name into a Role. It is the only way
// untrusted strings become roles.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "artist":
		return RoleArtist, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return roleUnknown, ErrInvalidRole
	}
}

func (r Role) String() string {
	switch r {
	case RoleArtist:
		return "artist"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == RoleArtist || r == RoleAdmin
}

// Satisfies reports whether a holder of r may access something that
// requires the given role. Admin satisfies every requirement.
func (r Role) Satisfies(required Role) bool {
	switch r {
	case RoleAdmin:
		return required.Valid()
	case RoleArtist:
		return required == RoleArtist
	default:
		return false
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
