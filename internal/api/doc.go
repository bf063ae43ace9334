// Package api exposes the diagnostics HTTP surface of the extraction
// performance layer: health, cache/queue/memory statistics, and read-only
// job status lookups. It translates HTTP concerns to the internal
// components without owning any extraction or caching logic itself.
//
// Job-originating routes deliberately do not live here; work enters the
// system through the processing queue's Submit API.
package api
