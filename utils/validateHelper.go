package utils

const maxIdentityLength = 64

// ValidateIdentity checks the canonical opaque identity format used for client
// and product ids: non-empty, at most 64 chars, [A-Za-z0-9_-]. Both numeric ids
// and UUIDs from upstream systems pass unchanged.
func ValidateIdentity(id string) error {
	if id == "" || len(id) > maxIdentityLength {
		return ErrorMalformedIdentity
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return ErrorMalformedIdentity
		}
	}
	return nil
}
