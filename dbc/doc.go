// Package dbc parses CAN database (DBC) text and resolves per-channel
// signal catalogs.
//
// Only the definitions needed to decode recorded traffic are interpreted:
// message definitions (BO_), signal definitions (SG_) including multiplexing
// markers, node lists (BU_) and the version string. Comments, attributes and
// value tables are skipped; this package decodes captures, it does not
// author databases.
//
// A Catalog binds parsed databases to channels. Signal names are
// channel-tagged ("CAN1.EngineSpeed") so the same database assigned to two
// channels yields distinct, collision-free series, matching how multi-bus
// captures are viewed in practice.
package dbc
