/*
Package chat is a transport-agnostic implementation of the chat relay core:
sessions, the user and room registries, the command interpreter, and the
per-room delivery loop that fans published events out to members.

This package should not know anything about sockets. Transports hand it
line-oriented Conn implementations, and room traffic is routed through a
pubsub.Broker so that delivery is decoupled from direct socket writes.
*/
package chat
