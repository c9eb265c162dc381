// Package sched holds the scheduling data model and the Project
// engine that owns it.
//
// A Project is a staged-mutation store: operations like SetTaskStart,
// AssignTask and AddDependency apply immediately in memory and record
// how to revert themselves. Commit validates the staged changeset,
// persists it through the configured Store and clears it; a failed
// commit rolls every staged change back before returning the error,
// so callers never observe a half-applied batch.
//
// The Project publishes through an event bus: "refresh" after every
// mutation (gated by SuspendRefresh/ResumeRefresh so a multi-step
// change paints once) and "commit" after a successful commit.
package sched
