/*
Package bootmark provides a composed configuration marker for bootstrapping
component-based applications: one Application marker that aggregates a
factory-configuration directive, an automatic capability discovery directive
and a component scan directive behind a single attribute surface.

Attributes set on the Application marker propagate to the underlying
directives through declared aliases. The alias graph is validated once per
definition (conflicting defaults and alias cycles are rejected up front) and
resolved once per marker use, so setting scanBasePackages on the marker and
reading basePackages on the scan directive always observe the same value.

The main entry point is the Runtime, which is initialized using a
BootstrapConfig configuration struct. The config wires in the external
collaborators: a candidate Scanner, an automatic capability discovery source,
a registration Container, exclusion hooks and declared exclusion filters.
Bootstrap then resolves the marker, scans and prunes candidates, and applies
explicit registrations before deferred imports.
*/
package bootmark
