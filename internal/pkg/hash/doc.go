// Package hash provides helpers for hashing and verifying short secrets.
//
// The service never stores a one-time code in clear text: it keeps the hash and
// verifies the submitted code against it. HMAC-SHA256 is the default because
// codes live for minutes; bcrypt and Argon2id are available when a slower
// function is preferred.
package hash
