// ABOUTME: Package documentation for the releases sub-view
// ABOUTME: Release lifecycle rules, form validation and the admin fragment handler

// Package releases implements the releases tab of the admin page.
//
// A release moves through a fixed lifecycle:
//
//	draft -> submitted -> approved -> live
//	                   \-> rejected -> draft
//
// Service enforces the lifecycle over a store.ReleaseStore and validates the
// create form. Handler serves the HTML fragment the admin page loads when the
// releases tab is mounted, along with the create and status endpoints. It has
// no knowledge of the page that hosts it.
package releases
