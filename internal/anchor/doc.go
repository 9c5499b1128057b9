// Package anchor encodes and decodes program accounts, instructions and events
// in the layout used by Anchor programs: an 8-byte sighash discriminator
// followed by the Borsh encoding of the body. It also carries the Anchor error
// numbering so failures read the same as they do from a deployed program.
package anchor
