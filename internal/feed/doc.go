// Package feed parses the external registry feeds into raw records.
//
// Each parser is a pure function from bytes/text to records plus
// record-level warnings. Structural problems (a feed-reported error, a
// missing required key, unparsable XML or email framing) are returned as
// errors and abort the whole batch; everything else is a warning and the
// record is either returned best-effort or left for the normalizer to drop.
//
// Parsers never touch storage and never resolve document names; that is the
// reconciliation engine's job.
package feed
