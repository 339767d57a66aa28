// Package sei drives a SEI document-management portal through a real
// browser session, exposing the portal's transactions as a typed Go API.
//
// The portal predates accessibility and API standards: screens are built
// from nested framesets, server-rendered tables, and inline JavaScript, and
// it offers no machine interface. This package treats the rendered UI as
// the protocol.
//
// # Architecture
//
// The package is built around three core concepts:
//
// 1. Client: one authenticated browser session against one portal tenant
// 2. Locator: a two-path element descriptor, semantic (role and accessible
// name) first, structural CSS selector second
// 3. Read models: plain structs reconstructed from rendered markup on every
// query, never cached
//
// # Session Lifecycle
//
// A Client is created with New, started with Init, and released with Close.
// Init picks one of three modes from configuration:
//
//  1. Attach: connect to an already running browser over its debug endpoint
//  2. Persistent: launch a browser bound to an on-disk profile directory
//  3. Ephemeral: launch a throwaway browser (default)
//
// With keep-alive enabled, Close leaves the browser running so a later
// attach can resume the logged-in session.
//
// # Resilience
//
// Every interaction resolves its element through the same algorithm:
// semantic path, then fallback selector, then a typed ElementNotFoundError
// naming both paths. Optional form fields report a FieldOutcome instead of
// failing the transaction, and submits are verified by the portal's own
// success banner rather than the absence of an error.
package sei
