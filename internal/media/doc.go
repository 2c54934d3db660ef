// Package media defines the recording filename grammar and the typed
// fragment model built from it.
//
// All state in the output directory is encoded in names:
// Recording_NN.<ext> is a merged canonical recording, while
// Recording_NN.<suffix>.<ext> is an unmerged single-stream fragment whose
// suffix distinguishes track labels and quality variants. A sibling
// <name>.part marker flags a write still in flight. ParseName turns a name
// into a ParsedName exactly once; nothing downstream string-matches again.
package media
