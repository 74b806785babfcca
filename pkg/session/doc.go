/*
Package session drives an Engine from a stream of host events.

A Session tracks the current selection, runs one extraction or generation per request
and reports progress to a ports.Publisher as domain.Message values. Every request gets a
sequence number; a newer selection cancels the work of older ones and their results are
dropped instead of being posted.
*/
package session
