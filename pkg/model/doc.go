// Package model describes the values handled by the translation repository:
// strings, string sets (component snapshots), versions, and the records and
// commits persisted in the repository log.
package model
