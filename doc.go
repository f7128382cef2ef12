/*
Package pet implements the coordinator core of a privacy-enhancing
federated-learning protocol.

A population of participants jointly train a shared model without
revealing individual updates. The coordinator drives a population of
participants through repeated rounds of a sum/update/sum2/unmask
masking protocol, aggregates masked contributions, and publishes a new
global model at the end of every round.

# Architecture

The coordinator core is split by concern:

  - petcrypto/    signing, sealed-box encryption, hashing, eligibility
  - wire/         binary wire codec for participant messages
  - store/        SumDict/SeedDict/MaskScores and model storage
  - aggregation/  masked-model accumulator
  - events/       single-writer/many-reader event bus
  - requests/     request channel shared between the pipeline and the
                   phase state machine
  - pipeline/     decrypt -> parse -> multipart -> validate -> dispatch
  - phase/        the Idle/Sum/Update/Sum2/Unmask/Failure/Shutdown
                   state machine
  - coordinator/  wires the above into one running coordinator
  - config/       configuration loading and validation
  - metrics/      Prometheus instrumentation

The root package holds the types shared across every layer:
CoordinatorState, RoundParameters and the mask configuration.

# Round lifecycle

	Idle -> Sum -> Update -> Sum2 -> Unmask -> Idle

Any phase may fail into Failure (which returns to Idle once storage is
ready again) or shut down if the request channel closes.

See the state machine in package phase for the orchestration logic,
and package pipeline for how encrypted wire messages become dispatched
requests.
*/
package pet
