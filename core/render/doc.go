// Package render provides request.Renderer implementations for templ components
// and html/template sets.
//
// Both renderers walk the module chain from the page outwards, so each layout
// wraps the output of the modules nested inside it:
//
//	h := request.NewHandler(table, render.NewTempl())
//
// A Content-Type of text/html is set unless a handler already chose one.
package render
