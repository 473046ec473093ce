// Package dysession stores web sessions in AWS DynamoDB.
//
// Each session is a single item keyed by the session key in the partition key attribute, the remaining
// attributes hold the session data. Items carry a ttl attribute in epoch seconds which DynamoDB uses to
// remove expired sessions in the background, reads treat an item whose ttl has elapsed as expired even
// before it is removed.
//
// The library is layered:
//
//   - DynaTable wraps the raw item operations for one table.
//   - Sessions maps table outcomes to session semantics, missing and expired sessions are reported as errors.
//   - SessionStore is the per request integration point used by Middleware, it loads lazily and creates
//     new unique keys on save.
//
// To setup a session client and read a session.
//
//	client := dysession.New(nil, dysession.WithConfig(cfg))
//
//	record, err := client.Sessions().Get("ZXhhbXBsZQ")
//	if err != nil {
//	    if errors.Is(err, dysession.ErrSessionExpired) {
//	        log.Printf("expired")
//	    }
//	}
package dysession
