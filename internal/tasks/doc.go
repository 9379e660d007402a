// Package tasks runs the WordPress → Contentful migration stages with real-time progress reporting.
//
// # Stages
//
// [MigrationEngine] exposes one method per stage. Stages exchange data only through JSON files
// under the output directory, so each can be re-run on its own:
//
//  1. [MigrationEngine.DownloadUsers], [MigrationEngine.DownloadPosts] : page through the WordPress REST API
//  2. [MigrationEngine.TransformPosts] : HTML → markdown, excerpt → plain text, redirect file
//  3. [MigrationEngine.BuildAssetList] : featured media plus inline body images
//  4. [MigrationEngine.UploadAssets] : create, process and publish Contentful assets
//  5. [MigrationEngine.MatchAuthors] : pair WordPress users with Contentful author entries by name
//  6. [MigrationEngine.CreatePosts] : create and publish post entries
//
// [MigrationEngine.Migrate] cleans the output directory and runs all of them in order.
//
// # Upload Engine
//
// Both upload stages run on [Uploader], a bounded-concurrency queue:
//   - Items are dispatched in input order to at most Concurrency workers
//   - Each item gets one attempt raced against a per-item timeout; nothing is retried
//   - Every item ends in exactly one of [UploadResult.Done] or [UploadResult.Failed]
//
// [PostWriter] is the per-item write path for posts: existence check by slug, create, publish,
// with a fixed delay before each remote call. A slug that already exists fails with [AlreadyExistsError]
// and nothing is created.
//
// # Progress Reporting
//
// All stages use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Uploader updates carry [UploadCounts] in Data.
//
// # Run History
//
// The optional [RunRecorder] interface stores a summary of each upload run (repositories.RunRepository).
// Recording errors are logged and otherwise ignored.
package tasks
