// Package auth maps bearer tokens to users and guards the HTTP routes.
//
// Every user owns exactly one opaque token, generated server side from 128
// bits of crypto/rand and never changed afterwards. Clients present it as
//
//	Authorization: Bearer <token>
//
// The Service type is the user directory:
//   - Authenticate: exact token lookup
//   - Create: new user with a fresh unique token
//   - Delete: removes a user together with all of its log events
//   - List / Get: read access for the dashboard and the CLI
//
// RequireToken is the fiber middleware used by the ingestion route.
// AdminBasicAuth protects the administrative routes with one argon2id
// hashed password.
//
// Example usage:
//
//	users := auth.NewService(db)
//	app.Post("/log", auth.RequireToken(users), ingest)
package auth
