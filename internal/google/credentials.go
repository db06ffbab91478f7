package google

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CredentialsEnv names the environment variable pointing at the OAuth client
// credentials file downloaded from the Google Cloud console.
const CredentialsEnv = "GOOGLE_CREDENTIALS_PATH"

// ErrCredentialsNotFound is returned when the credentials file is not configured
// or does not exist.
var ErrCredentialsNotFound = errors.New("google credentials not found")

// CredentialsPath returns the credentials file path from the environment and
// checks that the file exists.
func CredentialsPath() (string, error) {
	return checkCredentialsPath(os.Getenv(CredentialsEnv))
}

func checkCredentialsPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrCredentialsNotFound, CredentialsEnv)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCredentialsNotFound, path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrCredentialsNotFound, path)
	}
	return path, nil
}

// LoadOAuthConfig reads an installed-app client credentials file and returns
// the OAuth2 configuration for the given scopes (DefaultOAuthScopes if none).
func LoadOAuthConfig(path string, scopes ...string) (*oauth2.Config, error) {
	path, err := checkCredentialsPath(path)
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", path, err)
	}
	return conf, nil
}
