// Package console plays minefield rounds over a text stream.
//
// A round asks for the player's name and a difficulty (a preset level or a
// custom square size), then loops over actions until the game ends:
//
//	0: Clear a space.
//	1: Insert flag.
//	2: Remove flag.
//
// Every action is followed by a redraw of the board. Won games can be
// recorded on a leaderboard.Store, after which the top scores are listed.
package console
