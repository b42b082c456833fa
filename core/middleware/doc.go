// Package middleware groups the HTTP middleware of the status server.
//
// # Components
//
//   - auth: rejects requests without the configured API key (X-API-Key
//     header or api_key query parameter). No key configured means no check.
//   - rayid: tags every request with a ray id, kept from the X-Ray-ID header
//     when the client sends one, stored in the fiber locals as "ray_id" and
//     echoed in the response.
//
// rayid is registered first so the request log and every handler log line
// carry the ray id.
package middleware
