// Package domain contains revenue-split policy models.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrUnknownPolicyRole = errors.New("unknown_policy_role")

// PolicyRole names the agreement a rate applies to.
type PolicyRole string

const (
	PolicyRoleSeller          PolicyRole = "seller"
	PolicyRoleSellerAffiliate PolicyRole = "seller_affiliate"
	PolicyRoleReferredSeller  PolicyRole = "referred_seller"
	PolicyRoleBuyerAffiliate  PolicyRole = "buyer_affiliate"
)

// ParsePolicyRole decodes a stored role string.
func ParsePolicyRole(raw string) (PolicyRole, error) {
	switch PolicyRole(raw) {
	case PolicyRoleSeller, PolicyRoleSellerAffiliate, PolicyRoleReferredSeller, PolicyRoleBuyerAffiliate:
		return PolicyRole(raw), nil
	default:
		return "", ErrUnknownPolicyRole
	}
}

// RevenueSplitPolicy is a time-scoped agreement giving one payee a share
// rate for one role. ReferrerPolicyID points at the policy of whoever
// referred this payee; it is a lookup reference, never ownership.
type RevenueSplitPolicy struct {
	ID               snowflake.ID  `gorm:"primaryKey"`
	PayeeID          string        `gorm:"type:text;not null;index:idx_revenue_split_policies_payee_role"`
	Role             PolicyRole    `gorm:"type:text;not null;index:idx_revenue_split_policies_payee_role"`
	Rate             float64       `gorm:"not null"`
	ExpiresAt        *time.Time    `gorm:""`
	ReferrerPolicyID *snowflake.ID `gorm:""`
	CreatedAt        time.Time     `gorm:"not null"`
}

// TableName sets the database table name.
func (RevenueSplitPolicy) TableName() string { return "revenue_split_policies" }

// Expired reports whether the policy's window has passed at the given time.
// A policy with no expiry is valid forever.
func (p *RevenueSplitPolicy) Expired(at time.Time) bool {
	return p.ExpiresAt != nil && !at.Before(*p.ExpiresAt)
}

// EffectiveRate returns the policy rate, or fallback once expired.
func (p *RevenueSplitPolicy) EffectiveRate(at time.Time, fallback float64) float64 {
	if p == nil || p.Expired(at) {
		return fallback
	}
	return p.Rate
}
