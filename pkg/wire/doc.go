// Package wire defines the frames exchanged over a shopping list socket and
// the codecs that serialize them.
//
// A client emits an event frame carrying the event name, positional
// arguments and, when it expects an answer, an ack id. The server answers
// each acked event with exactly one ack frame holding the response envelope.
// The codec is fixed per connection by the negotiated WebSocket subprotocol:
// shoplist.v1+json uses text frames, shoplist.v1+cbor uses binary frames.
package wire
