// Package domain defines the contracts and value types of the resource
// governance layer: admission decisions, token-bucket scopes, circuit
// breaker states, the result cache, and decision statistics.
//
// This package does not depend on net/http nor on concrete implementations.
// The intent is to keep the admission rules unit-testable and decoupled
// from infrastructure details, so a shared-store backend can be substituted
// without touching the admission logic.
package domain
