package domain

import (
	"context"
	"errors"
	"time"
)

// Service resolves the rates applicable to an order at a point in time.
type Service interface {
	// ResolveSellerSplit returns the seller's effective rate together with
	// the seller-affiliate policy that referred them, if any. Expired
	// seller policies fall back to the platform default; expired affiliate
	// policies are dropped.
	ResolveSellerSplit(ctx context.Context, payeeID string, at time.Time) (*SellerSplit, error)

	// EnsureBuyerAffiliatePolicy returns the payee's buyer-affiliate
	// policy, creating one with the default rate the first time the payee
	// needs it.
	EnsureBuyerAffiliatePolicy(ctx context.Context, payeeID string, at time.Time) (*RevenueSplitPolicy, error)
}

// SellerSplit is the resolved rate pair for one store.
type SellerSplit struct {
	SellerRate             float64
	SellerAffiliatePayeeID string
	SellerAffiliateRate    float64
}

var (
	ErrInvalidPayee = errors.New("invalid_payee")

	// ErrNoPolicy means no applicable rate was found and no platform
	// default is configured. Fatal for the line item; surfaced, not
	// retried.
	ErrNoPolicy = errors.New("policy_not_resolvable")
)
