// Package auth guards the reader API.
//
// Two modes are supported:
//   - "none": no authentication (default); every request runs as DefaultUserID
//   - "local": users stored in SQLite, session cookies for browser clients and
//     Bearer tokens for API clients
//
// # Configuration
//
//	AUTH_MODE=local
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_TOKEN_EXPIRY=720h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	svc := auth.NewService(db.DB, cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(svc, sessions, cfg.Auth)
//	router.Use(sessions.SessionLoadSave(), mw.Handler())
//
// Handlers read the caller with auth.GetUserID(c).
package auth
