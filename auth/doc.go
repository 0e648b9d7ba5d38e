// Package auth gates HTTP handlers behind API keys.
//
// Keys are held as SHA-256 hashes and compared in constant time. A request
// presents its key in the X-API-Key header or as an Authorization bearer
// token. The authenticated Identity is attached to the request context.
package auth
