// Package playback replays a precomputed warehouse schedule.
//
// An Engine owns a World snapshot for the duration of a run. For every robot
// holding a schedule entry, in robot order, it resolves a Program
// (ItemPickup or EmptyHanded), animates each leg with a Sequencer and
// applies one atomic settle mutation when the program completes. Every timed
// wait is registered in a Registry so that Cancel stops all pending steps and
// no mutation happens afterwards.
package playback
