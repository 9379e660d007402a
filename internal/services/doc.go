// Package services implements the HTTP clients used by the migration pipeline.
//
// # WordPress
//
// [WordPressService] reads the public WordPress REST API. Collections are paginated with ?page=N;
// WordPress answers 400 once N is past the last page, which [WordPressService.Page] reports as [shared.ErrEndOfPages].
//
// # Contentful
//
// [ContentfulService] wraps the Content Management API for one space environment.
// The management token is sent as a bearer token through an [oauth2] client with a static token source.
// Entries are created as drafts and then published with the version returned by the create call.
// Assets are created from a remote URL, processed, polled until the file URL appears, and published.
//
// # Rate Limiting
//
// Both clients accept a requests-per-second budget enforced with a [rate.Limiter] before every request.
//
// # Error Handling
//
// Unexpected statuses are returned as [*StatusError], which unwraps to:
//   - [shared.ErrAPIRequest] : any non-2xx response
//   - [shared.ErrNotFound] : 404 responses
package services
