// Package chunker splits municipal ordinance sections into indexable
// chunks. Splits happen at paragraph boundaries with a character
// overlap so a provision that straddles a boundary is retrievable from
// either side. It also extracts zone-code designators (RS-8, T6-80)
// from chunk text and parses section headings.
package chunker
