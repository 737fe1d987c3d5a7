// Package filesystem provides implementations of the types.FS interface:
// an os-backed one for production and an afero-backed one for tests.
//
// Afero's MemMapFs cannot represent real symlinks, so the afero
// implementation simulates them with mode-flagged files whose content is the
// link target. Tests that depend on real symlink/rename semantics use the
// os implementation against t.TempDir() instead.
package filesystem
