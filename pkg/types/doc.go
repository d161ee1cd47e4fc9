// Package types defines the ProjectStore interface, the entity types it
// persists (projects, rules, tasks, steps, chat threads and messages), and
// the standard errors returned by store implementations.
package types
