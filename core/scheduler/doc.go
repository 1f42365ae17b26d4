// Package scheduler expands frequency bands into route timetables.
//
// A band covers a contiguous span of the service day with a fixed headway.
// Consecutive bands share their boundary time and the boundary departure is
// emitted once. Band files can be written in YAML or JSON.
package scheduler
