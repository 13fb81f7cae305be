package models

// Identity is the authenticated caller of an engine action.
//
// Identities are issued elsewhere; dinevote only trusts the user ID and
// display name carried by a verified token.
type Identity struct {
	// UserID is the stable identifier of the user.
	UserID string

	// DisplayName is shown on the roster when the user joins a plan.
	// May be empty; the engine substitutes a fallback.
	DisplayName string
}

// Name returns DisplayName, or fallback when it is blank.
func (i Identity) Name(fallback string) string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return fallback
}
