// Package drag implements the pointer gesture that moves backlog work
// onto the timeline.
//
// A Controller runs one session at a time: idle, dragging, then
// dropped or aborted, then idle again. While dragging it
// hit-tests the pointer against the timeline viewport on every move,
// keeps the session's validity current, and mirrors it on the visual
// proxy. A valid drop mutates the project inside a suspended-refresh
// window (a dependency link with a fixed 30-minute lag when the drop
// lands on an existing task, a start-time change otherwise, plus the
// lane assignment in either case) and commits the batch before
// refresh resumes and a single redraw fires. A failed commit still
// tears the visual state down, but the project rolls the batch back
// and the error propagates to the Drop caller.
//
// Aborting at any point removes the proxy and the edge-scroll ticker
// without touching the data model.
package drag
