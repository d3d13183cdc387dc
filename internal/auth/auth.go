// Package auth guards the ask and schema endpoints with static API keys.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"slices"
	"strings"
)

// RoleAsker may submit questions and read the live schema.
const RoleAsker = "asker"

type Identity struct {
	Subject string
	Roles   []string
}

func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

type staticKey struct {
	secret   []byte
	identity Identity
}

// StaticAPIKeyValidator checks keys configured as
// "key:subject:role|role,key2:subject2:role".
type StaticAPIKeyValidator struct {
	keys []staticKey
}

func NewStaticAPIKeyValidator(raw string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return validator, nil
	}

	seen := make(map[string]struct{})
	for _, entry := range strings.Split(raw, ",") {
		key, identity, err := parseStaticKey(entry)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate static key for subject %q", identity.Subject)
		}
		seen[key] = struct{}{}
		validator.keys = append(validator.keys, staticKey{secret: []byte(key), identity: identity})
	}
	return validator, nil
}

func parseStaticKey(entry string) (string, Identity, error) {
	parts := strings.Split(strings.TrimSpace(entry), ":")
	if len(parts) != 3 {
		return "", Identity{}, fmt.Errorf("invalid static key entry %q: expected key:subject:role|role", entry)
	}
	key := strings.TrimSpace(parts[0])
	subject := strings.TrimSpace(parts[1])
	if key == "" || subject == "" {
		return "", Identity{}, fmt.Errorf("invalid static key entry for %q: empty key or subject", subject)
	}

	var roles []string
	for _, role := range strings.Split(parts[2], "|") {
		if role = strings.TrimSpace(role); role != "" && !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "", Identity{}, fmt.Errorf("static key for %q needs at least one role", subject)
	}
	slices.Sort(roles)
	return key, Identity{Subject: subject, Roles: roles}, nil
}

// Validate compares against every configured key in constant time.
func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	candidate := []byte(apiKey)
	var (
		match Identity
		found bool
	)
	for _, key := range v.keys {
		if subtle.ConstantTimeCompare(key.secret, candidate) == 1 {
			match, found = key.identity, true
		}
	}
	return match, found
}
