// Package tui provides terminal surfaces for a typewriter.
//
//   - [Surface] and [Model]: an interactive Bubble Tea view. Frames arrive
//     as messages; the program owns the terminal until the user quits.
//   - [LiveSurface]: redraws one line in place with raw ANSI, for pipes
//     and non-interactive terminals.
//
// # Key Bindings
//
//	q, Esc, Ctrl+C - quit
package tui
