// Package models defines domain entities and persistence interfaces for the wpx migration tool.
//
// The package contains three categories of types:
//
// 1. Source DTOs: JSON shapes returned by the WordPress REST API
//   - [WPPost], [WPUser], [WPMedia]
//
// 2. Destination DTOs: JSON shapes of the Contentful Content Management API
//   - [Entry], [EntryCollection], [Asset], [Link], [EntryFields]
//
// 3. Migration records passed between pipeline stages and persisted between runs
//   - [Post] : a transformed WordPress post, the unit of work for the post uploader
//   - [Image], [AssetRecord] : images referenced by posts and their uploaded counterparts
//   - [AuthorMatch] : a WordPress user paired with a Contentful author entry
//   - [UploadRun], [UploadOutcome] : database-backed history of uploader runs
//
// Persistent entities implement the [Model] interface; the [Repository] interface defines standard data access.
package models
