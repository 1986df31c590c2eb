// Package google provides OAuth2 authentication for the Google Calendar API.
//
// The calendar is a shared resource accessed with an externally provisioned
// service credential: an OAuth client ID/secret pair plus a long-lived
// refresh token, supplied through configuration. The TokenProvider
// interface keeps the credential source pluggable, so tests and future
// transports can substitute their own token handling.
package google
