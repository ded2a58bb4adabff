// Package handler contains the HTTP request handlers of the LLMOps API.
//
// Handlers parse and validate input, call a service and write a success
// envelope. Every failure is returned as an error and rendered by the
// single fiber error handler (middleware.FaultTranslator); handlers never
// format failures themselves.
package handler
