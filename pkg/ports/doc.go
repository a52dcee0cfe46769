/*
Package ports defines the driven ports (interfaces) of the debrief engine.

These interfaces decouple the conversation state machine from external implementations,
allowing it to work with any language model, storage backend or presentation layer.

# Key Interfaces

  - ModelGateway: follow-up generation, transition check and summarization.
  - StateStore: persists and loads session State.
  - SummarySink: persists the Summary produced at session end.
  - DistributedLocker: distributed locking for concurrent session access.
  - Conversation: the session-ID based API consumed by presentation adapters.
*/
package ports
