// Package config loads oridll's Lua configuration file.
//
// The file is ordinary Lua that assigns a global "oridll" table:
//
//	oridll = {
//	  game_dir = platform.is_windows and [[D:\Games\Ori DE]] or platform.default_game_dir,
//	  data_folder = "oriDE_Data",
//	  assembly = "Assembly-CSharp.dll",
//	  game_exe = "oriDE.exe",
//	  scan_workers = 8,
//	  keyring = "~/.config/oridll/rando.asc",
//	}
//
// Every field is optional. The code runs in a gopher-lua VM with the os,
// io, debug and module-loading functions removed, and with a read-only
// "platform" table (see package platform) so one file can serve several
// machines. Evaluation is bounded by the caller's context, or by
// DefaultParseTimeout when it has no deadline.
//
// Errors are *ParseError for code that does not run or does not produce
// an "oridll" table, and *ValidationError for values that are out of range.
package config
