/*
Package relay is an implementation of a multi-user text chat relay. Clients
connect over a persistent line-oriented session, authenticate with a unique
display name, and exchange messages broadcast to named rooms, privately to
other users, or via server commands.

tcpd and ws subdirectories contain the transport pieces which know nothing
about chat.

chat subdirectory contains the chat-related pieces which know nothing about
transports.

pubsub subdirectory contains the channel broker that room fan-out is routed
through, so that many relay processes could share the same rooms.

The Host type is the glue between the transport and chat pieces.
*/
package relay
