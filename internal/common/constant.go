package common

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// UserIDContextKey is the gin context key holding the authenticated user id.
const UserIDContextKey = "userID"
