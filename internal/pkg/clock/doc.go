// Package clock provides a tiny time abstraction.
//
// Expiry rules (OTP windows, session lifetimes) read the time through
// Clocker so tests can pin it.
package clock
