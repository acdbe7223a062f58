package gcp

import (
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions accepts either inline service-account JSON or a path to it. Empty means
// application default credentials.
func ClientOptions(credentials string) []option.ClientOption {
	creds := strings.TrimSpace(credentials)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
