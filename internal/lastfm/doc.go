// Package lastfm links user accounts to last.fm and forwards listening
// activity there. The Manager owns the account plumbing; the network
// protocol lives behind the Sink interface so tests can swap it out.
package lastfm
