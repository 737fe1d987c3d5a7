// Package types contains the core data model shared across homelink:
// tracked files, file statuses, sync actions, file operations, and the
// filesystem interface every component reads and writes through.
//
// Keeping these in one leaf package avoids import cycles between the
// classifier, planner, transaction engine, and backup store.
package types
