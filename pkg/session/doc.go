/*
Package session implements session management and persistence orchestration.

It serializes access to a session state across goroutines, and across replicas when a
distributed locker is configured, so that each turn runs as load, transform, save.
*/
package session
