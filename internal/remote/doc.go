// Package remote talks to a template registry over HTTP.
//
// The registry exposes four endpoints:
//
//	GET  /list                              {"result": {id: {category, name, version}}}
//	GET  /meta/{category}/{name}/{version}  template.json of one image
//	GET  /get/{category}/{name}/{version}   zip archive of one image
//	POST /upload                            multipart: file, category, name, version, description
//
// Archives hold the image tree with slash-separated paths relative to the
// image root, template.json included. Requests block until the HTTP client
// gives up; the default client has no timeout, so callers that need one
// pass their own client with WithHTTPClient.
package remote
