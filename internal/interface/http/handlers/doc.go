// Package handlers contains HTTP handler interfaces and implementations.
//
// This package provides:
//   - Health check interfaces and implementations
//   - Admin PIN authentication
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("Health check failed: %s", status.Message)
//	}
//
// # Admin Authentication
//
// Admin endpoints are guarded by a single shared PIN, stored as a bcrypt
// hash in the configuration. The authenticator compares the X-Admin-PIN
// request header against the hash and memoizes successful comparisons,
// so the bcrypt cost is paid once per session rather than per request:
//
//	auth := handlers.NewAdminPINAuth(cfg.Admin.PINHash, cfg.Admin.SessionTTL)
//	if auth.Authorize(r) {
//	    // handle admin request
//	}
//
// When implementing health checks:
//   - Include critical dependencies like database and cache
//   - Keep checks fast (< 1 second ideally)
//   - Return detailed information for debugging
package handlers
