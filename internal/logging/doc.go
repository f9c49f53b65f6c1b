// Package logging sets up structured JSON logging for Argus.
//
// Logs go to a size-rotated file under ~/.argus/logs/ so that they never mix
// with search results on stdout. --debug lowers the level to debug; serve
// mode never writes to stderr because stdout/stderr carry the MCP protocol.
// The package also reads the log back for `argus logs`.
package logging
