// Package application contains the use cases (application rules) of the
// governance pipeline: throttle admission, circuit breaker gating, rate
// limit decisions, concurrency slots, and cached computation.
//
// It depends only on the domain package and knows nothing about net/http.
// Every service treats a nil dependency as "stage disabled, allow".
package application
