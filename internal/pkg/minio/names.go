package minio

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.\-]{1,61}[a-z0-9]$`)

// ValidateBucketName checks the S3 bucket naming rules that MinIO enforces
func ValidateBucketName(name string) error {
	switch {
	case !bucketNamePattern.MatchString(name):
		return fmt.Errorf("%w: %q must be 3-63 lowercase letters, digits, dots or hyphens", ErrInvalidBucketName, name)
	case strings.Contains(name, ".."), strings.Contains(name, ".-"), strings.Contains(name, "-."):
		return fmt.Errorf("%w: %q has adjacent separators", ErrInvalidBucketName, name)
	case net.ParseIP(name) != nil:
		return fmt.Errorf("%w: %q looks like an IP address", ErrInvalidBucketName, name)
	}
	return nil
}

// ValidateObjectName rejects keys that cannot round-trip through a list call:
// empty, oversized, absolute, or containing NUL or dot segments.
func ValidateObjectName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidObjectName)
	case len(name) > 1024:
		return fmt.Errorf("%w: longer than 1024 bytes", ErrInvalidObjectName)
	case strings.HasPrefix(name, "/"):
		return fmt.Errorf("%w: %q is absolute", ErrInvalidObjectName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: contains NUL", ErrInvalidObjectName)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q has a dot segment", ErrInvalidObjectName, name)
		}
	}
	return nil
}
