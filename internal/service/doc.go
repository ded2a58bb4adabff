// Package service contains the business logic of the LLMOps API.
//
// Services depend on consumer-defined interfaces (repositories, a
// transaction runner, the prompt library). Mutations of one request run
// inside a single database.RunScope activation: a failure returned from
// the scope body, domain or not, rolls the work back and reaches the
// caller unchanged.
package service
