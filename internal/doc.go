// Package internal contains the implementation packages for htmlinject.
//
// # Package Organization
//
// The pass that turns a template into a document is split by concern:
//
//   - dom: HTML parsing, normalisation and tree helpers
//   - cssurl: url() extraction from inline stylesheets
//   - assets: classification and rebasing of local references
//   - outputs: metafile decoding, output selection and change detection
//   - tags: <link> and <script> synthesis with optional integrity
//   - emit: writing documents and copying assets
//   - inject: the per-build pass and its esbuild plugin
//
// Around it sit the development loop packages:
//
//   - bundle: esbuild options, one-shot builds and incremental sessions
//   - watcher: debounced file system monitoring
//   - livereload: WebSocket hub that tells browsers to reload
//   - server: static file server for the output directory
//
// and the ambient ones: config, errors, logging and version.
//
// # Inter-Package Communication
//
//   - bundle hands each finished build to inject through the plugin
//   - inject reports finished passes to its notifiers, such as livereload
//   - watcher triggers bundle rebuilds from the command layer
//   - server serves what emit wrote and mounts the livereload hub
package internal
