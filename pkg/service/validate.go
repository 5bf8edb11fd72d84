package service

import (
	"errors"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/repository"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	minPasswordLength = 8
	// bcrypt only hashes the first 72 bytes and rejects longer input.
	maxPasswordLength = 72

	maxCartQuantity = 10000
)

var validate = validator.New()

var errPasswordTooLong = apperr.BadRequest("Password must be at most 72 bytes.")

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// parseID turns a hex id into an ObjectID, reporting msg as a 400 on failure.
func parseID(hex, msg string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest(msg)
	}
	return id, nil
}

// storeErr maps repository sentinels onto HTTP errors. Anything else becomes
// an internal error carrying msg.
func storeErr(err error, notFound, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict(msg)
	}
	return apperr.Internal(msg, err)
}
