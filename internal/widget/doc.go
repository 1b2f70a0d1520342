/*
Package widget holds the types shared by the chart and table builders.

A Request names a target, a data source and a Kind. The builders in
widget/chart and widget/table turn it into a library configuration, attach
that configuration to a dom.Document and hand back an instance carrying a
Handle. Nothing is shared between two builds: each call constructs its own
configuration, which the returned instance then owns.
*/
package widget
