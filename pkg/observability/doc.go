/*
Package observability provides tools for monitoring Skillgate engine activity.

It aggregates pipeline lifecycle events into live snapshots: execution counts
by status and skill, the current approval backlog, and a watch channel for
real-time monitoring.
*/
package observability
