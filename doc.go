// Package mqttv5 decodes MQTT v5.0 PUBLISH packets.
//
// It implements the wire format and validation rules of the MQTT Version
// 5.0 OASIS Standard, §3.3 (PUBLISH):
// https://docs.oasis-open.org/mqtt/mqtt/v5.0/mqtt-v5.0.html
//
// The package is deliberately narrow: it decodes one control packet type
// and nothing else. Transport I/O and TLS, session state, subscription
// matching, retained-message storage, the encoder side, and decoders for
// other control packets (CONNECT, SUBSCRIBE, …) all live outside this
// package; PublishDecoder only needs a byte window, the fixed-header flags,
// a per-connection topic alias table, and a broker-wide alias limiter.
//
// # Reading a packet off the wire
//
// FixedHeader.Decode reads the 2-5 byte fixed header (packet type, flags,
// and a Variable Byte Integer Remaining Length) from any io.Reader.
// readFixedHeaderAndBody then reads exactly RemainingLength bytes into a
// byte window:
//
//	header, body, n, err := readFixedHeaderAndBody(conn, maxPacketSize)
//
// For PacketPUBLISH, hand header.Flags and body straight to PublishDecoder;
// this package does not provide a generic packet dispatcher for the other
// 14 control packet types.
//
// # Decoding PUBLISH
//
// PublishDecoder is built once per broker (or test) from a read-only
// decoderConfig snapshot and a process-wide TopicAliasLimiter, and is safe
// for concurrent use — it carries no per-connection state itself:
//
//	limiter := mqttv5.NewTopicAliasLimiter(16 * 1024 * 1024)
//	decoder := mqttv5.NewPublishDecoder(config, limiter)
//
//	msg, reason := decoder.Decode(body, header.Flags, connAliases)
//	if reason != nil {
//	    // send DISCONNECT with reason.ReasonCode (and reason.ReasonString
//	    // when reason strings are enabled) and close the connection.
//	    return
//	}
//	// msg is a fully validated *Mqtt5Publish, ready for routing.
//
// Decode never returns both a message and a rejection, and never neither.
//
// # Topic aliases
//
// Each connection owns one TopicAliasManager, sized to the Topic Alias
// Maximum advertised in that connection's CONNECT/CONNACK exchange (out of
// this package's scope) and freed via ClearInbound at disconnect. New alias
// bindings are charged against the shared TopicAliasLimiter's byte budget;
// PublishDecoder consults it after every binding and rejects the packet
// with QUOTA_EXCEEDED if the budget is blown, leaving the binding in place
// per §4.4/§9.
package mqttv5
