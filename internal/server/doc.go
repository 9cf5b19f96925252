// Package server exposes search, favorites and a shared playback session over HTTP.
//
// # Routes
//
//	GET    /health                          liveness and favorites store status
//	GET    /search?provider=&query=&limit=  provider search (all providers when provider is empty)
//	GET    /favorites?provider=             favorites for one provider
//	POST   /favorites                       add a favorite (track JSON)
//	DELETE /favorites/{provider}/{id}       remove a favorite
//	GET    /player                          playback state
//	POST   /player/{action}                 play, pause, toggle, next, previous
//	POST   /player/seek                     {"positionMs": n}
//	POST   /player/volume                   {"volume": 0..1}
//	GET    /player/queue                    queued tracks
//	POST   /player/queue                    {"track": {...}, "play": bool}
//	POST   /player/queue/{index}/play       jump to a queue entry
//	DELETE /player/queue/{index}            remove a queue entry
//	GET    /player/ws                       websocket stream of playback state
//
// # Session
//
// One [Session] owns the [playback.Player]. Every handler goes through [Session.Do], which serializes access, and the
// session clock advances the position on a ticker while playing. State changes are pushed to websocket clients by the
// [Hub].
//
// Routing uses chi; [Middleware] values wrap the router in the order given.
package server
