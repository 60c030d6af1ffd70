// Package http provides the HTTP client shared by the geocoder, the
// metadata fetcher and the image downloader.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Per-call timeouts
//   - JSON GET requests with query parameters
//   - File downloads with progress tracking
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultUserAgent, 30*time.Second)
//
//	// Fetch and decode JSON
//	err := client.GetJSON(ctx, endpoint, params, &out)
//
//	// Download file with progress callback
//	client.DownloadFile(ctx, imageURL, "/panos/img_1.jpg", func(written, total int64) {
//	    fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	})
//
// # Errors
//
// Non-2xx responses are returned as *StatusError. IsTransient classifies
// errors for retry decisions.
package http
