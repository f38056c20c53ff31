// Package auth owns credential handling for the server: argon2id password
// hashing, the 32-byte server secret, and signed bearer tokens with
// capability scopes.
//
// Tokens are stateless; they are recomputed and verified from the secret
// plus claims and never persisted. Callers that need revocation semantics
// must re-check the named user against current configuration after
// verification.
package auth
