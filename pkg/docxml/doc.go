// Package docxml provides a minimal mutable XML tree for WordprocessingML
// document parts.
//
// Parts are parsed from raw bytes into a tagged Node tree and encoded back
// with the original XML prolog, root tag and namespace declarations
// preserved, so a round trip through the tree never rewrites content the
// engine did not touch. The tree is deliberately small: nodes are either
// elements or text, with explicit accessors instead of reflection-driven
// marshaling, which keeps malformed input from aborting a whole pass.
//
// The package is namespace-aware only to the degree WordprocessingML
// requires: element tests accept both prefixed and unprefixed names in the
// main WordprocessingML namespace, and Encode re-declares any required
// namespace missing from the root element.
package docxml
