package screen

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// DefaultAccept is the protocol range accepted when none is configured.
const DefaultAccept = ">= 1.0.0"

// ParseAccept compiles a protocol constraint such as ">= 1.0.0, < 2.0.0".
func ParseAccept(accept string) (*semver.Constraints, error) {
	if accept == "" {
		accept = DefaultAccept
	}
	c, err := semver.NewConstraint(accept)
	if err != nil {
		return nil, fmt.Errorf("invalid protocol constraint %q: %w", accept, err)
	}
	return c, nil
}

// CheckProtocol reports whether version satisfies c.
func CheckProtocol(c *semver.Constraints, version string) error {
	if version == "" {
		return fmt.Errorf("protocolVersion is required")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid protocolVersion %q: %w", version, err)
	}
	if ok, errs := c.Validate(v); !ok {
		if len(errs) > 0 {
			return fmt.Errorf("unsupported protocolVersion %s: %w", version, errs[0])
		}
		return fmt.Errorf("unsupported protocolVersion %s", version)
	}
	return nil
}
