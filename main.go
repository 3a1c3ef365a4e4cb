package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/supavault/internal/app"
)

// @title           SupaVault API
// @version         1.0
// @description     SupaVault passwordless identity: one-time email codes, session cookies and user lookup.
// @contact.name    SupaVault Support
// @contact.email   support@supavault.dev
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  CookieAuth
// @in cookie
// @name token
// @description Session token set by POST /api/v1/identity/otp/verify.
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
