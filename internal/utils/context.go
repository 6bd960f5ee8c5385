// Package utils provides shared utility functions and constants
package utils

// ContextKeyUserEmail is the echo context key holding the verified email of
// the caller. It is empty for requests that bypassed the access gate.
const ContextKeyUserEmail = "user_email"

// AccessCookieName is the cookie Cloudflare Access sets after login.
const AccessCookieName = "CF_Authorization"

// AccessHeaderName carries the Access token on proxied requests.
const AccessHeaderName = "Cf-Access-Jwt-Assertion"

// ContextKeyCSRF holds the CSRF token the browser page echoes back in
// X-CSRF-Token.
const ContextKeyCSRF = "csrf"
