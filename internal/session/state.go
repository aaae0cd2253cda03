package session

// Account is the signed-in user as reported by the identity provider
type Account struct {
	HomeAccountID string `json:"homeAccountId"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	TenantID      string `json:"tenantId"`
}

// State is a snapshot of the session. IsLoading is true until Init has
// completed and for the duration of every interactive flow.
type State struct {
	Account   *Account
	IsLoading bool
}

// IsAuthenticated reports whether an account is signed in
func (s State) IsAuthenticated() bool {
	return s.Account != nil
}
