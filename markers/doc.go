/*
Package markers parses marker comments in Go source and turns marked types
into scan candidates.

A marker is a comment of the form "// +name" or "// +name=key=value,...",
attached to a type declaration. Slice arguments use "{a,b}". The package
ships three markers: bootmark:component and bootmark:capability mark
registrable types, bootmark:application marks a composed entry point.

SourceScanner is the reference Scanner collaborator: it resolves scan spec
base packages against configured filesystem roots and emits a candidate for
every marked type it finds.
*/
package markers
