// Package promptstash provides the template model and placeholder renderer for a
// catalog of reusable prompt templates ingested from a GitHub repository of YAML files.
// Ingestion lives in package ingest, tiered caching in package cache; Render,
// PrependProfile and MissingRequired are pure functions over Template.
package promptstash
