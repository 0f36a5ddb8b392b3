// Package user holds the parts of the user account the subscription core reads and writes.
// Account management itself lives outside this service.
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
)

var ErrUserNotFound = errors.New("user not found")

// User is the account owning subscriptions. Tier caches the plan type of the
// user's entitled subscription, or free when there is none.
type User struct {
	id        string
	email     string
	username  string
	tier      vo.PlanType
	createdAt time.Time
	updatedAt time.Time
}

func NewUser(id, email, username string) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email: %s", email)
	}

	now := time.Now().UTC()
	return &User{
		id:        id,
		email:     email,
		username:  username,
		tier:      vo.PlanTypeFree,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructUser(id, email, username string, tier vo.PlanType, createdAt, updatedAt time.Time) *User {
	if !tier.IsValid() {
		tier = vo.PlanTypeFree
	}
	return &User{
		id:        id,
		email:     email,
		username:  username,
		tier:      tier,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (u *User) ID() string {
	return u.id
}

func (u *User) Email() string {
	return u.email
}

func (u *User) Username() string {
	return u.username
}

func (u *User) Tier() vo.PlanType {
	return u.tier
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// SetTier updates the cached tier and reports whether it changed.
func (u *User) SetTier(tier vo.PlanType, now time.Time) bool {
	if !tier.IsValid() || u.tier == tier {
		return false
	}
	u.tier = tier
	u.updatedAt = now
	return true
}

// ResetTier drops the user back to the free tier.
func (u *User) ResetTier(now time.Time) bool {
	return u.SetTier(vo.PlanTypeFree, now)
}
