package rag

import _ "embed"

// Default knowledge corpus shipped with the binary. A deployment can
// point ECOGO_CHAT_CORPUS_PATH at its own chunks file instead.
//
//go:embed chunks.jsonl
var defaultCorpus []byte
