// Package events defines the playback related events emitted on the event bus.
//
// Available event types:
//   - RunEvent: playback run lifecycle (started, finished, cancelled, refused)
//   - StepEvent: a robot reached the next coordinate of a leg
//   - SettleEvent: a robot finished its program and the world was settled
//   - NoticeEvent: a user-visible notice (skipped robot, refused run)
package events
