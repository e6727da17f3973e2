// Package model defines the provider‑agnostic inference transport used by
// the parley engine, plus concrete adapters in sub-packages.
//
// Core goals:
//   - One request shape: target model id + ordered messages, single shot
//   - Keep request/response shapes minimal and transport independent
//   - Optional liveness probing via the Pinger interface
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (ollama, openai, anthropic) implement the Model interface from
// this package so the engine remains decoupled from vendor SDKs.
package model
