// Package http provides optional HTTP adapters for the page builder.
//
// TemplateAPI mounts the editing endpoints:
//   - POST {admin}/create, POST {admin}/save
//   - GET {admin}/load?path=, GET {admin}/components
//   - GET {api}/render?path=
//
// PageHandler serves the language-prefixed page routes (/{lang}/{slug...}),
// redirecting unprefixed or unsupported paths to the default language.
//
// Host applications can register handlers on their own mux/router as needed.
package http
