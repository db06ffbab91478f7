package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultOAuthScopes are the scopes requested during consent. Only message
// metadata is read, so read-only Gmail access is enough.
var DefaultOAuthScopes = []string{
	gmail.GmailReadonlyScope,
}
