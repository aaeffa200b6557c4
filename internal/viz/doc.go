// Package viz renders extinction experiments in the terminal.
//
// [ExtinctionModel] is a Bubble Tea model that follows a running experiment
// row by row: feed it [RowMsg] values from [experiment.Experiment.OnRow]
// through tea.Program.Send and a [DoneMsg] when the run returns. [RenderCurves]
// and [RenderSweep] draw finished results with asciigraph.
//
// # Key Bindings
//
//	q, ctrl+c - Quit
//	tab       - Cycle the plotted curve
package viz
