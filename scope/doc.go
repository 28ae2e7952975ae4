// Package scope provides structured-concurrency primitives for Go.
// Scopes own the tasks they spawn, provide a join point (Wait), and
// propagate cancellation and errors predictably according to a policy.
//
// A scope may be bounded by a weighted semaphore (WithCapacity,
// WithMaxConcurrency, WithSemaphore). Each task then holds its weight from
// the moment it starts until it returns.
package scope
