// Package mapillary fetches image metadata from the Mapillary Graph API.
//
// # Pagination
//
// The /images endpoint is paged with opaque cursors. Client.FetchImages
// keeps requesting pages, passing the previous page's "after" cursor, until
// a page comes back without one or the accumulated count exceeds the cap:
//
//	client, _ := mapillary.NewClient(httpClient, mapillary.Options{Token: token})
//	res, err := client.FetchImages(ctx, box)
//	if res.Truncated {
//	    // more than MaxImages matched; narrow the box
//	}
//
// The cap is soft: the page that crosses it is kept whole and nothing after
// it is requested.
//
// # Retries
//
// Every page request is retried with a fixed delay on transient failures
// (see http.IsTransient). A page that still fails after the attempt budget
// fails the whole fetch.
package mapillary
