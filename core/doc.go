// Package core defines the shared data model and capability contracts of the
// taskmesh orchestration engine: the immutable-update ConversationState that
// flows through every step, the Message/Part content model, the tagged
// RoutingDecision emitted by classifiers, the TaskExecutor / Classifier /
// Store interfaces, the stream event union delivered by the streaming facade,
// and the typed error taxonomy shared by all layers.
//
// Everything in this package is deliberately free of provider and transport
// concerns; adapters live in the model, memory and server packages.
package core
