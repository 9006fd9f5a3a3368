// Package store maps image references onto the local image cache.
//
// The layout is fixed:
//
//	<root>/<category>/<name>/<version>/template.json
//	<root>/<category>/<name>/<version>/<template files...>
//
// An entry counts as present only when its template.json is readable.
// Directories starting with "." directly under the root are reserved for
// internal use (staging) and are never enumerated.
package store
