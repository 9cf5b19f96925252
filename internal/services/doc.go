// Package services talks to the music providers' search APIs.
//
// Each provider implements [Searcher], returning the provider's raw search payload. The [Aggregator] turns payloads
// into [models.Track] values via the normalize package, consults the optional search cache, and fans a query out to
// every configured provider with [Aggregator.SearchAll].
//
// # Spotify
//
// [SpotifyService] authenticates with the client-credentials grant; the [clientcredentials] token source refreshes
// the app token as needed. Searches go to /search?type=track.
//
// # SoundCloud
//
// [SoundCloudService] sends the configured client_id with every request to /search/tracks.
//
// # Transport
//
// Both clients share [transport], which layers a token bucket ([rate.Limiter]), a circuit breaker
// ([gobreaker.CircuitBreaker]) and retries with backoff ([retryablehttp.Client]). Server errors and 429s are retried;
// other 4xx responses fail immediately and do not count against the breaker.
//
// # Errors
//
//   - [ErrProviderUnavailable] : provider down, rate limited past retries, or breaker open
//   - [ErrProviderRequest] : the provider rejected the request (4xx)
//   - [normalize.ErrMalformedPayload] : the payload did not have the expected shape
package services
