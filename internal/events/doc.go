// Package events provides the observer mechanism used by the timer registry
// and the energy ledger to publish state-changed notifications.
//
// Publishers own an EventEmitter and never know who is listening. Listeners
// such as the persistence layer register an EventHandler and react to every
// state change without reaching into the publisher's state.
//
// The primary components are:
// - Event: an immutable notification describing one state change
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that publish events
package events
