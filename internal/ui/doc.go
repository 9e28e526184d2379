// Package ui implements the streaming narrative viewer using bubbletea's Elm architecture.
//
// The TUI shows one reading as its narrative is generated:
//   - a header listing the drawn cards and their spread positions
//   - a phase line with a spinner while the stream is live
//   - a scrollable viewport that grows as narrative text streams in
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Controller snapshots arrive over a channel and are re-emitted as messages,
// so the stream can keep running while the terminal repaints.
//
// Pause and resume keys publish hidden/visible events on the controller's
// signal hub, which exercises the same resume path as a process restart.
package ui
