// Package http serves the rendered price chart to a local browser.
//
// The viewer stands in for a desktop chart window: Serve blocks until the
// user presses Close on the page (POST /dismiss) or the context is
// cancelled.
//
//	GET  /            HTML page embedding the chart
//	GET  /chart.png   the rendered image
//	GET  /api/series  plotted points as JSON
//	POST /dismiss     closes the viewer
package http
