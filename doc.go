// Package vermclient provides a client for the Verm content-addressed blob
// store.
//
// Verm stores immutable blobs under server-assigned locations derived from
// their content. The client offers three operations:
//   - Store: POST a payload to a directory and return its location
//   - Load: GET a location and return its content and content type
//   - Stream: GET a location and deliver the body to a callback in chunks
//
// Usage:
//
//	client, err := vermclient.NewClient("verm.internal")
//	loc, err := client.Store(ctx, "/reports", vermclient.Bytes(data), "text/csv")
//	res, err := client.Load(ctx, loc)
//
// A Client is intended for sequential use by a single owner. Callers that
// need concurrency should use one Client per goroutine.
package vermclient
