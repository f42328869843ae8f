// Package extract pulls video identifiers out of user-supplied URLs and the
// embedded player payload out of watch page markup. Nothing here performs I/O.
package extract

// Payload is the loosely typed player response tree as decoded from the page.
// Numbers are kept as json.Number so large counts survive decoding.
type Payload map[string]any
