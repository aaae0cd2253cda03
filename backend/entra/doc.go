// Package entra verifies Microsoft Entra ID (Azure AD) v2.0 access tokens.
//
// KeyResolver fetches and caches the tenant's signing keys; Verifier checks
// a token's algorithm, signature, expiry, issuer and audience and projects
// the claims into an Identity. An Identity can only be obtained from a
// successful verification.
package entra
