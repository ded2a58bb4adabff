// Package dto holds the request and response bodies of the HTTP API.
package dto
