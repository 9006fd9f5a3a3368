// Package render instantiates an image into a new project directory,
// substituting {{key}} placeholders in paths and text file contents.
//
// Substitution is a single pass: a replacement value that itself contains
// {{other}} is written literally and never expanded again. Tokens whose key
// has no replacement are left untouched. The renderer performs no prompting;
// callers resolve every value up front (see package placeholder).
package render
