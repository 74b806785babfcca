// Package redis connects a session to Redis pub/sub, so that hosts in other
// processes can drive selections and receive progress messages.
package redis
