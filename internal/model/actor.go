package model

// SystemActorID is recorded when no identity is attached to a mutation.
const SystemActorID = "SYSTEM"

// Actor is the identity on whose behalf a mutation is performed.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	IP    string `json:"ip,omitempty"`
}

// SystemActor is used by provisioning and background operations.
func SystemActor() Actor {
	return Actor{ID: SystemActorID, Email: SystemActorID}
}

// ActorFromUser builds an actor from a resolved user.
func ActorFromUser(u *User) Actor {
	if u == nil {
		return SystemActor()
	}
	return Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}

// IsSystem reports whether the actor carries no identity.
func (a Actor) IsSystem() bool {
	return a.ID == "" || a.ID == SystemActorID
}
