// Package server exposes ticketsmith over HTTP.
//
// It accepts ticket requests, converts text to ADF on demand, lists the run
// history, and relays workflow log events to clients as server-sent events so
// a browser or script can follow a run as it progresses. A lock file under
// paths.state_dir keeps a single server instance per state directory.
package server
