// Package store provides durable storage for due notifications.
//
// It is the workflow's due-item source and completion store: items
// are enqueued with a due date, fetched in deterministic order once
// they are due, and marked completed after their email is confirmed
// delivered. The store implements mailer.Source and mailer.Marker.
//
// SQLite with WAL mode is used so readers (the due listing) never
// block the single writer.
package store
