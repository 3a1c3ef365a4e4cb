// Package mail sends transactional email through SMTP or Amazon SES.
//
// Use cases depend on the Mail interface only; NewFromDriver picks the
// provider from configuration.
package mail
