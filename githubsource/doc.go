// Package githubsource reads template files from a public GitHub repository over
// the REST API and raw.githubusercontent.com: one recursive tree listing, raw file
// content by path, and the latest commit date touching a path. It never retries or
// falls back; callers decide (see package cache).
package githubsource
