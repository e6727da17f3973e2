// Package session keeps the transcript of a conversation run in memory.
//
// The transcript is an observer: it is fed by engine callbacks and the
// dispatcher's submit hook and never influences what agents see. Agents only
// know what reached their own mailbox. A store holds one transcript per run id
// and can export it as YAML once the run ended.
package session
