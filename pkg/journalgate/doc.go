// Package journalgate is the authorization and moderation engine for a
// travel-journal application: journals that contain places, both submitted by
// users, moderated by admins, and published into a public catalog.
//
// It exposes a single Service interface covering the access gate (who may
// read, edit, moderate, or publish an item), the moderation state machine
// (pending, approved, rejected, with an append-only event log), the
// visibility policy (public listing as the read-time AND of the item and its
// parent journal), and the visit-status resolver that classifies places as
// visited or to-visit from partially overlapping legacy date fields.
//
// Persistence sits behind the Repository port; in-memory and Postgres
// implementations live under subpackages, as do the blob-store backends used
// for place photos. The clock and the notification sink are injectable, so
// every rule in the package is testable deterministically.
package journalgate
