// Package blogger is a small client for the Blogger v3 REST API.
//
// It inserts and lists posts on one blog. Requests authenticate with an API
// key, an OAuth2 refresh token, or both; Blogger only accepts writes from an
// OAuth2 bearer token, so publishing needs the refresh token in practice.
package blogger
