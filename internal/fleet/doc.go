// Package fleet manages the collection of game assemblies kept in a game's
// Managed directory.
//
// A Manager scans the directory, classifies every file in parallel and
// reduces the results to a Catalog holding one entry per distinct build.
// Install swaps the active assembly for another build. Before the active
// file is replaced it is renamed to a backup, unless an identical build is
// already kept under another name, so no build that was ever seen is lost.
//
// Installs are serialized by the Manager and, when a state directory is
// configured, by a lock file shared with other processes. The same state
// directory holds a journal that lets Recover put back a backed-up build
// after an interrupted install.
package fleet
