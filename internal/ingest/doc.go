// Package ingest reads a delimited playlist export of unknown byte encoding
// and unknown column order into a typed [models.ExportBatch].
//
// Decoding tries a fixed chain of encodings on the same byte buffer (UTF-8,
// windows-1252, latin-1, then UTF-8 with replacement) so exports produced on
// Windows or by legacy tools never abort the import. The chosen encoding is
// recorded in the batch metadata for diagnostics.
//
// Column layout is resolved once per file from the header row; rows missing a
// required field are counted and skipped, never fatal. The only fatal
// conditions are an unreadable file and a parse that yields zero playlists.
package ingest
