package models

import "go.mongodb.org/mongo-driver/v2/bson"

// SessionContext identifies the caller of a core operation. It is built once
// by the auth middleware and passed explicitly to every service call; there
// is no ambient per-process auth state. ActingAsID is set when an admin
// impersonates another user and then applies to ownership checks.
type SessionContext struct {
	ActorID    bson.ObjectID
	ActorRole  Role
	IsAdmin    bool
	ActingAsID *bson.ObjectID
}

// EffectiveID is the identity ownership checks run against: the impersonated
// user when switch-user is active, the actor otherwise.
func (s SessionContext) EffectiveID() bson.ObjectID {
	if s.IsAdmin && s.ActingAsID != nil {
		return *s.ActingAsID
	}
	return s.ActorID
}

// CanActOn reports whether the session may operate on an entity owned by the
// given user. Admins may always act.
func (s SessionContext) CanActOn(ownerID bson.ObjectID) bool {
	return s.IsAdmin || s.EffectiveID() == ownerID
}
