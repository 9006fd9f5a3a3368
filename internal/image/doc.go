// Package image defines template image references of the form
// "category/name:version", resolves omitted versions against the directories
// present in a store, and declares the error kinds shared by every image
// operation (build, render, pull, push, list).
package image
