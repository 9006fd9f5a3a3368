// Package platform provides the filesystem primitives shared by the store,
// builder, renderer, and remote client: permission handling that degrades
// on Windows, mode-preserving file writes, and staged directory replacement.
package platform
