// Package builder stamps a template source folder into the local store.
//
// A build copies the tracked files into a staging directory, hashes them,
// writes the stamped template.json last, and only then moves the staging
// directory into place. A failed build removes its staging directory and
// leaves any previous entry untouched.
package builder
