/*
Package domain contains the core domain models of the debrief conversation engine.

It defines the entities the state machine works on: Messages and Transcripts, the
reflection Script, the per-session State and the Summary produced when a session ends.
This package is kept pure and free of external dependencies like I/O, model access
or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Message: a single immutable chat turn (user or assistant).
  - Script: the fixed reflection questions plus the transition/closing sentinels.
  - State: the runtime snapshot of a session (transcripts, cursor, awaiting tag).
  - Summary: the goals and follow-up opportunities extracted at session end.
  - Reply: a model answer tagged with whether it was parsed or a fallback.
*/
package domain
