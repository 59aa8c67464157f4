// Package scheduler admits move requests against an animation window.
//
// A committed move puts the Scheduler into the Animating state for a settle
// duration. Requests arriving meanwhile are not applied; the most recent one
// is kept as the pending direction and admitted when the window ends. Any
// earlier buffered request is simply overwritten.
//
// The scheduler is not safe for concurrent use. It runs on an Executor,
// normally a Loop owned by a game session, and the settle timer only posts a
// task back onto that executor, so re-admission never happens from inside
// another admission.
//
// Clocks are injectable: RealClock uses the runtime timers, ManualClock only
// moves when Advance is called, which makes tests and scripted simulations
// deterministic.
package scheduler
