// Package security contains everything related to the security of user data
package security

import (
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type BcryptHash struct {
	Cost int
}

func New() *BcryptHash {
	return &BcryptHash{
		Cost: viper.GetInt("security.bcrypt_cost"),
	}
}

func (b *BcryptHash) GenerateFromPassword(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), b.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPasswd compares a password p with the stored hash e. A
// malformed hash is treated the same as a mismatch.
func (b *BcryptHash) VerifyPasswd(p, e string) bool {
	return bcrypt.CompareHashAndPassword([]byte(e), []byte(p)) == nil
}
