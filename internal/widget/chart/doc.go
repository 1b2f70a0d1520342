// Package chart builds Chart.js configurations: one dataset with a fixed
// white border, responsive sizing, a timed entrance animation, white legend
// text and the tableau.ClassicMedium10 color scheme.
package chart
