package helpers

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// noPassword stands in for people who never set a password, so a login
// attempt against them costs one bcrypt comparison like any other.
var noPassword, _ = bcrypt.GenerateFromPassword([]byte("amy-no-password"), bcrypt.MinCost)

// CompareHashAndPassword reports whether plain matches hash. An empty
// hash never matches.
func CompareHashAndPassword(hash string, plain string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(noPassword, []byte(plain))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
