// Package google provides OAuth2 authentication and token management for the
// Gmail API.
//
// Client credentials come from the installed-app JSON file named by the
// GOOGLE_CREDENTIALS_PATH environment variable. User tokens are stored per
// account under the user cache directory (~/.cache/inboxtally/google-<account>.token)
// and refreshed automatically. When no usable token exists, Authenticator runs
// the consent flow with a loopback redirect on 127.0.0.1.
package google
