// Package types defines the JSON bodies shared by the HTTP server and its
// middleware.
package types
