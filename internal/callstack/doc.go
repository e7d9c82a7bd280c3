// Package callstack provides the sequential command scheduler behind a
// typewriter.
//
// Commands are appended with [Scheduler.Enqueue] and executed one at a time,
// each to completion, in the order they were appended. A command may block
// (sleep between keystrokes, wait) and the next one does not start until it
// returns.
//
// # Loop regions
//
// [Scheduler.StartLoop] turns on recording: every command enqueued afterwards
// is captured into the loop body instead of the live queue. When the marker
// queued by [Scheduler.EndLoop] executes, the queue is replaced by a copy of
// the body; from then on the body is reloaded every time the queue drains.
// The body itself is never consumed, so each cycle replays the same commands.
// A loop only ends when the scheduler is stopped.
//
// # Errors
//
// A failing command does not halt the scheduler. The failure is wrapped in a
// [CommandError], logged, handed to the handler installed with
// [WithErrorHandler], and the next command runs.
//
// # Thread Safety
//
// Enqueue, StartLoop, EndLoop, Stop and the accessors are safe to call from
// any goroutine. Command bodies always run on the scheduler's own goroutine,
// never two at once.
package callstack
