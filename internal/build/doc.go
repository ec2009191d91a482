// Package build provides the canonical build pipeline of texbuilder.
//
// A build loads the workbook, selects one document, compiles it into every
// configured dialect, writes the outputs with a manifest, optionally bundles
// and publishes them, and records the lifecycle in the build history. The
// CLI, the scheduler, the file watcher and the HTTP API all route through
// Service.
package build
