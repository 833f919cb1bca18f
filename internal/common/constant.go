package common

// AuthorizationHeaderName carries the bearer token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// DefaultNoteColor is used when a note is created or updated without a color.
const DefaultNoteColor = "#ffffff"
