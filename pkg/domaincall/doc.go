// Package domaincall is the client for the external domain service that
// owns users, tasks, habits, goals, and daily metrics.
//
// The bridge only consumes this interface: the tool dispatcher maps
// model-requested function calls onto it, and session setup reads the user
// context it formats into instructions. Business rules, validation, and
// cross-record consistency belong to the service behind it.
//
// Client is the HTTP implementation; Fake is an in-memory recording
// implementation for tests.
package domaincall
