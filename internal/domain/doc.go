// Package domain contains the core business entities of the LLMOps API.
//
// Domain types are persistence-agnostic. Types ending in "Input" are used
// for create/update operations, types ending in "Filter" for queries.
package domain
