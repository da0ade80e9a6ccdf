package activity

import (
	"context"
	"fmt"

	"github.com/warp/roster-engine/generic"
	"golang.org/x/crypto/bcrypt"
)

// PINVerifier authorizes clock actions.
type PINVerifier interface {
	Verify(ctx context.Context, employee generic.Employee, pin string) error
}

// BcryptVerifier checks a PIN against the employee's bcrypt PINHash.
// Employees without a PIN pass only when AllowUnset is set.
type BcryptVerifier struct {
	AllowUnset bool
}

func (v BcryptVerifier) Verify(_ context.Context, employee generic.Employee, pin string) error {
	if employee.PINHash == "" {
		if v.AllowUnset {
			return nil
		}
		return generic.ErrInvalidPIN
	}
	if bcrypt.CompareHashAndPassword([]byte(employee.PINHash), []byte(pin)) != nil {
		return generic.ErrInvalidPIN
	}
	return nil
}

// HashPIN returns the bcrypt hash stored in Employee.PINHash.
func HashPIN(pin string) (string, error) {
	if len(pin) < 4 {
		return "", generic.Invalid(generic.ErrInvalidInput, "pin", "must be at least 4 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}
