// Package script emits the browser bootstrap for widgets built server side.
//
// Each chart becomes a `new Chart(document.getElementById(id), config)` call
// and each table a `$(selector).DataTable(config)` call. Edit columns carry
// no function in their JSON form, so the emitted code re-attaches a render
// callback for them before the table is constructed.
package script
