// Package models defines the domain types shared by the normalizer, the player, and the favorites store.
//
// The package contains two categories of types:
//
// 1. Search results: immutable values produced by the normalizer
//   - [SearchItem] : one track as returned by a provider search, in a provider-neutral shape
//   - [ArtistInfo] : credited artist with a link to their provider profile
//
// 2. Player-facing values
//   - [Track] : a [SearchItem] tagged with its [Provider], playable URI and favorite flag
//   - [PlaybackState] : snapshot of the player (current track, position, play flag, volume)
//
// [Provider] is a closed variant over the supported sources. Call sites switch on it rather than comparing provider strings.
package models
