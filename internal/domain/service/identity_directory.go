package service

import "context"

// IdentityProfile is what the identity provider knows about an account.
type IdentityProfile struct {
	DisplayName string
	PhotoURL    string
}

// IdentityDirectory looks up identity-provider profiles. It is optional; callers
// must tolerate a nil directory.
type IdentityDirectory interface {
	LookupProfile(ctx context.Context, uid string) (*IdentityProfile, error)
}
