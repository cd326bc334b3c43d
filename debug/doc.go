// Package debug renders encoded pods as indented, human-readable text.
//
// Numeric tags are resolved through an optional TypeTable, loadable
// from YAML, so object types, property keys and id values can show
// their domain names. Unknown tags render as hex previews rather than
// errors; the renderer is a diagnostic tool and inspects whatever it is
// given.
package debug
