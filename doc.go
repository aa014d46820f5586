// Package keyed contains the core components of Keyed, a typed algebra for describing
// per-key grouping, sorting and reduction over key-value streams. This root package
// defines the types which are employed during regular use of the algebra, as well as
// in the extension of the algebra with new execution engines, and is an excellent
// overview of Keyed's key concepts.
package keyed
