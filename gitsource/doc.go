// Package gitsource reads template files from a Git repository cloned in memory with
// go-git. It offers the same listing, raw fetch and last-modified contract as
// package githubsource without the REST API quota: file ids are blob hashes, dates
// come from the newest commit touching each path.
package gitsource
