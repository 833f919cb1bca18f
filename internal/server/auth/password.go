package auth

import (
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

// dummyHash is compared against when the email is unknown so that both
// login failures cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("notekeeper-dummy-password"), passwordCost)

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// ComparePassword returns common.ErrorInvalidCredentials when password does
// not match hash.
func ComparePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return common.ErrorInvalidCredentials
	}
	return nil
}

// CompareDummy burns one comparison for a login attempt on an unknown email.
func CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
