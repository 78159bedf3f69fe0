// Package slotbox implements the storage side of XEP-0363 HTTP File Upload.
//
// An XMPP server hands a client an upload slot: a path plus a token computed
// as HMAC-SHA256 over the path, the declared size and (for v2 tokens) the
// declared content type, keyed with a secret shared with slotbox. The client
// PUTs the file once; afterwards anyone holding the URL can GET or HEAD it.
//
// # Key Components
//
//   - TokenVerifier: recomputes v1/v2 tokens and compares in constant time
//   - SecureFilename/StorageName: map untrusted request paths to a single
//     safe filename under the storage root
//   - Metadata: the key:value sidecar record stored next to each object
//   - Service: upload and retrieval orchestration over FileStorage and
//     MetadataStore, with an optional UploadLedger index
//
// # Token Versions
//
// Tokens are looked up in TokenParams order: the "v2" query parameter first,
// then "v". The parameter that is present selects the signing scheme:
//
//	v1: HMAC(secret, path + " " + size)
//	v2: HMAC(secret, path + "\x00" + size + "\x00" + contentType)
//
// The path signed is the literal request path; the storage name is derived
// from it afterwards.
//
// # Example Usage
//
//	verifier := slotbox.NewTokenVerifier(secret)
//	service, err := slotbox.NewService(verifier, storage, sidecars, slotbox.ServiceConfig{EnforceSize: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	version, token, err := slotbox.SelectToken(r.URL.Query())
//	info, err := service.Create(ctx, slotbox.CreateObject{
//	    Path:          "abc123/photo.png",
//	    ContentLength: 2048,
//	    ContentType:   "image/png",
//	}, version, token, r.Body)
//
// See the filesystem package for the storage backend, the http package for
// the HTTP surface and the database package for ledger backends.
package slotbox
