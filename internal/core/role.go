package core

import "fmt"

// Role is what a GridObject stands for in the level.
// The declaration order is the classification priority.
type Role int

const (
	RoleAgent     Role = iota // the controlled piece (locksmith)
	RoleGoal                  // a candidate lock
	RoleKey                   // the currently held pattern
	RoleChooser               // cycles the key shape
	RoleRotator               // turns the key
	RoleCorrector             // recolours the key
	RoleRefill                // restores the step budget
	RoleNone      Role = -1
)

// NumRoles is the number of classifiable roles.
const NumRoles = int(RoleRefill) + 1

var roleNames = [...]string{"agent", "goal", "key", "chooser", "rotator", "corrector", "refill"}

func (r Role) String() string {
	if r < 0 || int(r) >= NumRoles {
		return "none"
	}
	return roleNames[r]
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	for i, n := range roleNames {
		if n == s {
			return Role(i), nil
		}
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

// IsSelector reports whether entering an object of this role changes the key.
// Selectors must be left and re-entered to trigger again.
func (r Role) IsSelector() bool {
	return r == RoleChooser || r == RoleRotator || r == RoleCorrector
}
