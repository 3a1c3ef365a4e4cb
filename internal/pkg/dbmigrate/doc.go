// Package dbmigrate applies the embedded SQL migrations with golang-migrate.
package dbmigrate
