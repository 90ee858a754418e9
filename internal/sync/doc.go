// Package sync implements the bulk external-data synchronization engine: the
// job registry, work unit splitter, match/import resolvers, event stream
// encoder, and the orchestrator that drives them.
//
// One orchestrator run per job executes as an independent task; multiple jobs
// may run concurrently, each with its own registry entry and stream consumer.
// Within a single job, unit processing is strictly sequential to respect
// external-API rate limits and keep progress accounting exact.
package sync
