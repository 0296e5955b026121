// Package scheduler talks to the external scheduling service that turns a
// warehouse snapshot into a schedule, and reads worlds and schedules from
// JSON or YAML files.
package scheduler
