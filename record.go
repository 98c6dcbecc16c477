package restbase

// Record is one backend row represented as a column-name-to-value mapping.
// The client never interprets values beyond JSON decoding; see pkg/marshal
// for decoding rows into typed structs.
type Record map[string]any
