// Package catalog reads unbuilt templates from template folders.
//
// Each folder holds a templates.json index keyed by category and name:
//
//	{
//	  "python": {
//	    "fastapi": {"path": "python/fastapi", "placeholders": ["author"], "open": "main.py"}
//	  }
//	}
//
// An entry carries the same fields as template.json plus "path", the
// template's directory relative to the folder (default: the entry name).
// Folders are searched in order and the first one whose template directory
// exists wins.
package catalog
