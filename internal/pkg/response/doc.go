// Package response defines the uniform envelope returned by every endpoint.
//
// Every request outcome, success or failure, is serialized as:
//
//	{"code": "success", "message": "", "data": {}}
//
// The envelope is written with HTTP 200; clients switch on Code, which is one
// of the fixed values in http_code.go.
package response
