// Package metadata reads, validates, and writes template.json, the
// self-describing record stored at the root of every template source folder
// and every built image. Author-written files carry only name, description,
// placeholders, and open; built images additionally carry the stamped
// identity, content hash, size, and creation time.
package metadata
