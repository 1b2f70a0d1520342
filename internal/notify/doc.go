// Package notify runs user-triggered actions against an endpoint and shows
// their outcome as a transient notification.
//
// The endpoint answers with {"message": ..., "type": ...}; Message is the
// server side of that contract. A failed request always shows
// {"message": "Error", "type": "danger"}. Messages reach the Display exactly as
// the endpoint sent them; wrap an HTML-rendering Display in HTMLDisplay.
package notify
