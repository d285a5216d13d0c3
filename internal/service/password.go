package service

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-office-api/internal/models"
)

var passwordCost = bcrypt.DefaultCost

// hashPassword is the only producer of models.PasswordHash values outside the database.
func hashPassword(plain models.PlainPassword) (models.PasswordHash, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return "", err
	}
	return models.PasswordHash(digest), nil
}

func verifyPassword(hash models.PasswordHash, plain models.PlainPassword) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
