// Package kml reads and writes the document markup.
//
// A document is a sequence of paragraphs, optionally wrapped in a <kml>,
// <doc> or <document> root:
//
//	<kml>
//	<p style="heading" align="center"><t>Plain </t><t bold="true">bold</t></p>
//	</kml>
//
// Paragraph content is character data and <t> runs. A run's attributes are
// inline overrides; an attribute that is absent is inherited, never reset.
// The parser also accepts the shorthand tags b, i, u, s, sub and sup (and
// their long names) nested to any depth. Serialize always writes the
// canonical form: one <t> per run with attributes in a fixed order.
package kml
