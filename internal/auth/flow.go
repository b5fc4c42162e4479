package auth

// Flow is the session-carried transient state of the multi-step account
// flows. The engine mutates it and clears each sub-flow on terminal success
// or failure; the caller owns persisting it between requests and dropping
// it when the originating page is reloaded.
type Flow struct {
	// Staged registration: set by FirstRunSetup / RequestRegistration,
	// consumed by CompleteRegistration.
	RegisterEmail   string
	SuperAdminSetup bool

	// Staged password reset: set by RequestPasswordReset, consumed by
	// CompletePasswordReset.
	ResetEmail string

	// Pending federated link: set when a federated login matches no
	// account, consumed or aborted by CompleteLink.
	PendingFederatedID string
	LinkAttempts       int
}

func (f *Flow) ClearRegistration() {
	f.RegisterEmail = ""
	f.SuperAdminSetup = false
}

func (f *Flow) ClearReset() {
	f.ResetEmail = ""
}

func (f *Flow) ClearLink() {
	f.PendingFederatedID = ""
	f.LinkAttempts = 0
}
