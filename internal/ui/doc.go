// Package ui implements the podx terminal interface using bubbletea's Elm architecture.
//
// The root [Model] owns a session (API client, request sequencer, bulk submitter and the
// connected device's playlists) and hands it by reference to four panels:
//  1. Device panel : detect, connect and disconnect a player; manage its playlists
//  2. Library panel : album grid with inline expansion, tracks table, add-to-playlist picker
//  3. Upload panel : queue local files and upload them one at a time
//  4. Device browser : full-screen view of the connected player (press o, esc to leave)
//
// Every load carries a token from the sequencer; completions whose token is no longer the
// latest for their key are dropped before they reach a panel. Panels exchange data only
// through messages of the [Msg] union and the shared session.
//
// Track tables share one multi-select component: space selects the cursor row, x toggles it,
// shift+up/down extends a range from the anchor, and mouse clicks honor ctrl and shift.
package ui
