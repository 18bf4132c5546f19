//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

func passwordHashCost(configured int) int {
	// Reduce cost for race-enabled builds so test suites can run with strict timeouts.
	if configured > bcrypt.DefaultCost {
		return bcrypt.DefaultCost
	}
	return configured
}
