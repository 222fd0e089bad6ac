// Package catalog reads and writes body catalogs and assembles scenarios.
//
// The binary format is little-endian: an int32 record count followed by
// that many 28-byte records of float32 position (AU), velocity (m/s) and
// mass (kg). Records with NaN or infinite position or velocity are dropped
// on read and counted in Stats.
package catalog
