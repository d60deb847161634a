/*
Package ports defines the interfaces (ports) that decouple the Skillgate
engine from its infrastructure.

Following Hexagonal Architecture, the engine core (registry, approval gate,
pipeline, workflow engine) depends only on these interfaces. Adapters
(memory, file, redis, http, mcp) implement or consume them.
*/
package ports
