// Package otp generates one-time verification codes.
//
// A code is a fixed-length string of decimal digits, each drawn independently
// and uniformly from 0-9 with crypto/rand. Leading zeros are kept, so "004213"
// is a valid six-digit code.
package otp
